package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/catalog-crawler/internal/domain"
	"github.com/user/catalog-crawler/internal/fetch"
)

// stubChecker reports a fixed reachability verdict.
type stubChecker struct{ ok bool }

func (s stubChecker) Reachable(ctx context.Context, url string) bool { return s.ok }

func TestValidateRequiredFields(t *testing.T) {
	v := NewValidator(stubChecker{ok: true}, zap.NewNop())

	err := v.Validate(context.Background(), &domain.ProductRecord{ProductURL: "https://example.com/p"})
	assert.ErrorIs(t, err, errMissingName)

	err = v.Validate(context.Background(), &domain.ProductRecord{Name: "Aalto Chair"})
	assert.ErrorIs(t, err, errMissingURL)
}

func TestValidateUnreachableURL(t *testing.T) {
	v := NewValidator(stubChecker{ok: false}, zap.NewNop())
	rec := &domain.ProductRecord{Name: "Aalto Chair", ProductURL: "https://example.com/gone"}
	assert.ErrorIs(t, v.Validate(context.Background(), rec), errUnreachableURL)
}

func TestValidateCleansImages(t *testing.T) {
	v := NewValidator(stubChecker{ok: true}, zap.NewNop())
	rec := &domain.ProductRecord{
		Name:       "Aalto Chair",
		ProductURL: "https://example.com/p",
		ImageURLs: []string{
			"https://example.com/img/chair-front.jpg",
			"https://example.com/assets/logo.png",
			"https://example.com/img/icon-share.png",
			"https://example.com/img/chair.svg",
			"https://example.com/img/placeholder.jpg",
			"https://example.com/img/chair-side.jpg",
		},
	}

	require.NoError(t, v.Validate(context.Background(), rec))
	assert.Equal(t, []string{
		"https://example.com/img/chair-front.jpg",
		"https://example.com/img/chair-side.jpg",
	}, rec.ImageURLs)
}

// An empty image list after cleaning is not a rejection reason.
func TestValidateAllImagesFilteredStillValid(t *testing.T) {
	v := NewValidator(stubChecker{ok: true}, zap.NewNop())
	rec := &domain.ProductRecord{
		Name:       "Aalto Chair",
		ProductURL: "https://example.com/p",
		ImageURLs:  []string{"https://example.com/logo.svg"},
	}

	require.NoError(t, v.Validate(context.Background(), rec))
	assert.Empty(t, rec.ImageURLs)
}

func TestValidateWithHeadChecker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := NewValidator(fetch.NewHeadChecker(), zap.NewNop())

	ok := &domain.ProductRecord{Name: "Aalto Chair", ProductURL: srv.URL + "/p"}
	assert.NoError(t, v.Validate(context.Background(), ok))

	gone := &domain.ProductRecord{Name: "Aalto Chair", ProductURL: srv.URL + "/gone"}
	assert.ErrorIs(t, v.Validate(context.Background(), gone), errUnreachableURL)
}

func TestIsCatalogImage(t *testing.T) {
	assert.True(t, IsCatalogImage("https://example.com/img/chair.jpg"))
	assert.False(t, IsCatalogImage("https://example.com/brand-logo.png"))
	assert.False(t, IsCatalogImage("https://example.com/art.svg"))
	assert.False(t, IsCatalogImage(""))
}
