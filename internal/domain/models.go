package domain

// PageLabel classifies the role a page plays in a shop's hierarchy.
type PageLabel string

const (
	LabelHome        PageLabel = "home"
	LabelCategory    PageLabel = "category"
	LabelSubcategory PageLabel = "subcategory"
	LabelListing     PageLabel = "listing"
	LabelProduct     PageLabel = "product"
	LabelIrrelevant  PageLabel = "irrelevant"
)

// PageStatus tracks a PageNode through the traversal state machine.
type PageStatus string

const (
	StatusQueued     PageStatus = "queued"
	StatusFetching   PageStatus = "fetching"
	StatusClassified PageStatus = "classified"
	StatusExpanded   PageStatus = "expanded"
	StatusExtracted  PageStatus = "extracted"
	StatusPruned     PageStatus = "pruned"
)

// NodeID addresses a PageNode within its job's arena.
type NodeID int

// RootParent marks nodes with no parent in the traversal tree.
const RootParent NodeID = -1

// PageNode is one queued or visited page in the traversal graph.
// HTML is transient: it is released once the node is expanded,
// extracted or pruned, only URL and Label outlive processing.
type PageNode struct {
	ID       NodeID
	URL      string
	Depth    int
	ParentID NodeID
	Label    PageLabel
	Status   PageStatus
	HTML     string
}

// TargetStatus is the discovery outcome for one crawl input.
type TargetStatus string

const (
	TargetResolved     TargetStatus = "resolved"
	TargetUnresolvable TargetStatus = "unresolvable"
)

// SiteTarget is one resolved brand-or-URL input. Immutable once resolved.
type SiteTarget struct {
	Input       string       `json:"input"`
	ResolvedURL string       `json:"resolved_url"`
	Status      TargetStatus `json:"status"`
}

// ProductRecord is the structured output of extracting one product page.
// ImageURLs preserve document order; the first entry is the primary image.
type ProductRecord struct {
	Name          string   `json:"name"`
	Designer      string   `json:"designer,omitempty"`
	Description   string   `json:"description,omitempty"`
	ImageURLs     []string `json:"image_urls"`
	ProductURL    string   `json:"product_url"`
	FurnitureType string   `json:"furniture_type,omitempty"`
	SourceNodeID  NodeID   `json:"-"`
}

// PriceEntry is one row of the externally supplied price dataset.
// Read-only to the pipeline.
type PriceEntry struct {
	Name          string            `json:"name"`
	FurnitureType string            `json:"furniture_type"`
	Price         float64           `json:"price"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// MergedRecord is the terminal output unit: a validated ProductRecord
// plus the fields of its fuzzy-matched PriceEntry, if any.
type MergedRecord struct {
	ProductRecord
	Price      *float64          `json:"price,omitempty"`
	PriceExtra map[string]string `json:"price_extra,omitempty"`
	Matched    bool              `json:"matched"`
	Confidence float64           `json:"confidence"`
}

// Outcome summarizes a job or a single target.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// TargetOutcome is the per-SiteTarget line of a job summary.
type TargetOutcome struct {
	Input       string  `json:"input"`
	ResolvedURL string  `json:"resolved_url,omitempty"`
	Outcome     Outcome `json:"outcome"`
	Error       string  `json:"error,omitempty"`
	Pages       int     `json:"pages_visited"`
	Products    int     `json:"products_extracted"`
}

// JobSummary is the terminal status report of one pipeline run. It is
// always produced, even when the job fails or is cut short.
type JobSummary struct {
	Outcome           Outcome         `json:"outcome"`
	Targets           []TargetOutcome `json:"targets"`
	PagesVisited      int             `json:"pages_visited"`
	ProductsExtracted int             `json:"products_extracted"`
	RecordsRejected   int             `json:"records_rejected"`
	RecordsMerged     int             `json:"records_merged"`
}
