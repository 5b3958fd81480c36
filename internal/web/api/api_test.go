package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
	"github.com/conduit-lang/metaregistry/runtime/metadata/coretypes"
)

func coreRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	r := metadata.NewRegistry(metadata.WithLogger(zaptest.NewLogger(t)))
	_, err := r.Discover(context.Background(), coretypes.Strategy())
	require.NoError(t, err)
	return r
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHealthz(t *testing.T) {
	h := NewRouter(Static(nil), nil, nil)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRegistryNotLoaded(t *testing.T) {
	h := NewRouter(Static(nil), nil, zaptest.NewLogger(t))
	var body ErrorResponse
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/types", &body))
	assert.Equal(t, "service_unavailable", body.Code)
}

func TestListTypes(t *testing.T) {
	h := NewRouter(Static(coreRegistry(t)), nil, zaptest.NewLogger(t))

	var all []TypeSummary
	require.Equal(t, http.StatusOK, get(t, h, "/api/types", &all))
	assert.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}

	var objects []TypeSummary
	require.Equal(t, http.StatusOK, get(t, h, "/api/types?family=OBJECT", &objects))
	var names []string
	for _, o := range objects {
		assert.Equal(t, "object", o.Type)
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"object.base", "object.map", "object.pojo", "object.proxy"}, names)
}

func TestGetType(t *testing.T) {
	h := NewRouter(Static(coreRegistry(t)), nil, zaptest.NewLogger(t))

	var detail TypeDetail
	require.Equal(t, http.StatusOK, get(t, h, "/api/types/field/string", &detail))
	assert.Equal(t, "field.string", detail.Name)
	assert.Equal(t, "field.base", detail.Parent)
	assert.Equal(t, "field.StringField", detail.Implementation)
	assert.True(t, detail.Resolved)

	var direct, inherited bool
	for _, c := range detail.Children {
		if c.ChildType == "attr" && c.ChildName == "maxLength" {
			direct = !c.Inherited
		}
		if c.ChildType == "validator" {
			inherited = c.Inherited
		}
	}
	assert.True(t, direct, "maxLength is declared on field.string")
	assert.True(t, inherited, "validators come from field.base")
	assert.NotNil(t, detail.Requirements)
}

func TestGetType_Unknown(t *testing.T) {
	h := NewRouter(Static(coreRegistry(t)), nil, zaptest.NewLogger(t))

	var body ErrorResponse
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/types/field/strng", &body))
	assert.Equal(t, string(metadata.CodeUnknownType), body.Code)
	assert.Contains(t, body.Details["available"], "field.string")
}

func TestHealthAndStats(t *testing.T) {
	h := NewRouter(Static(coreRegistry(t)), nil, zaptest.NewLogger(t))

	var health struct {
		Status string               `json:"status"`
		Stats  metadata.HealthStats `json:"stats"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/api/health", &health))
	assert.NotEmpty(t, health.Status)
	assert.Positive(t, health.Stats.TotalTypes)

	var stats metadata.RegistryStats
	require.Equal(t, http.StatusOK, get(t, h, "/api/stats", &stats))
	assert.Equal(t, health.Stats.TotalTypes, stats.TotalTypes)
	assert.Positive(t, stats.TypesByPrimary["field"])
}

func TestPlacement(t *testing.T) {
	h := NewRouter(Static(coreRegistry(t)), nil, zaptest.NewLogger(t))

	tests := []struct {
		name    string
		query   string
		status  int
		allowed bool
	}{
		{"inherited child rule", "/api/placement?parent=object.map[order]&child=field.string[id]", http.StatusOK, true},
		{"named attribute", "/api/placement?parent=field.string[id]&child=attr.int[maxLength]", http.StatusOK, true},
		{"rejected", "/api/placement?parent=field.string[id]&child=object.map[order]", http.StatusOK, false},
		{"missing child", "/api/placement?parent=field.string", http.StatusBadRequest, false},
		{"bad reference", "/api/placement?parent=field&child=attr.int[x]", http.StatusBadRequest, false},
		{"unknown type", "/api/placement?parent=field.strng[id]&child=attr.int[x]", http.StatusNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result PlacementResult
			var out any = &result
			if tt.status != http.StatusOK {
				out = &ErrorResponse{}
			}
			require.Equal(t, tt.status, get(t, h, tt.query, out))
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.allowed, result.Allowed)
				if !tt.allowed {
					assert.NotEmpty(t, result.Reason)
				}
			}
		})
	}
}
