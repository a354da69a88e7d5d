package apcloudy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpidersList(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spiders/list", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("project"))
		json.NewEncoder(w).Encode(map[string]any{
			"spiders": []map[string]any{
				{"name": "products", "version": "1.2.0", "project_id": "p1"},
				{"name": "reviews", "version": "0.9.1", "project_id": "p1"},
			},
		})
	}))

	spiders, err := client.Spiders.List(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, spiders, 2)
	assert.Equal(t, "products", spiders[0].Name)
	assert.Equal(t, "1.2.0", spiders[0].Version)
}

func TestSpidersGet(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spiders/products", r.URL.Path)
		assert.Equal(t, "p1", r.URL.Query().Get("project"))
		json.NewEncoder(w).Encode(map[string]any{
			"name":     "products",
			"settings": map[string]any{"DOWNLOAD_DELAY": 2.5},
			"tags":     []string{"nightly"},
		})
	}))

	spider, err := client.Spiders.Get(context.Background(), "p1", "products")
	require.NoError(t, err)
	assert.Equal(t, "products", spider.Name)
	assert.Equal(t, 2.5, spider.Settings["DOWNLOAD_DELAY"])
	assert.Equal(t, []string{"nightly"}, spider.Tags)
}

func TestSpidersGetNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"spider not found"}`))
	}))

	_, err := client.Spiders.Get(context.Background(), "p1", "ghost")
	require.Error(t, err)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "spider", nfErr.Resource)
	assert.Equal(t, "ghost", nfErr.ID)
}

func TestSpidersDeploy(t *testing.T) {
	const code = "class ProductsSpider:\n    pass\n"

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spiders/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "p1", r.FormValue("project"))
		assert.Equal(t, "products", r.FormValue("spider_name"))

		var settings map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("settings")), &settings))
		assert.Equal(t, float64(16), settings["CONCURRENT_REQUESTS"])

		file, _, err := r.FormFile("spider_file")
		require.NoError(t, err)
		defer file.Close()
		uploaded, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, code, string(uploaded))

		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	err := client.Spiders.Deploy(context.Background(), "p1", "products",
		strings.NewReader(code), map[string]any{"CONCURRENT_REQUESTS": 16})
	require.NoError(t, err)
}

func TestSpidersDeployRetryResendsFile(t *testing.T) {
	const code = "class ProductsSpider:\n    pass\n"

	var attempts atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		// The retried attempt must carry the same body as the first.
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "p1", r.FormValue("project"))

		file, _, err := r.FormFile("spider_file")
		require.NoError(t, err)
		defer file.Close()
		uploaded, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, code, string(uploaded))

		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	err := client.Spiders.Deploy(context.Background(), "p1", "products", strings.NewReader(code), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestSpidersDeployNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"project not found"}`))
	}))

	err := client.Spiders.Deploy(context.Background(), "ghost", "products", strings.NewReader("x"), nil)
	require.Error(t, err)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "project", nfErr.Resource)
	assert.Equal(t, "ghost", nfErr.ID)
}

func TestSpidersDeployRejected(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "syntax error in spider"})
	}))

	err := client.Spiders.Deploy(context.Background(), "p1", "products", strings.NewReader("x"), nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "syntax error")
}

func TestSpidersUpdate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/spiders/products", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["project"])

		json.NewEncoder(w).Encode(map[string]any{
			"name":     "products",
			"settings": body["settings"],
		})
	}))

	spider, err := client.Spiders.Update(context.Background(), "p1", "products",
		map[string]any{"DOWNLOAD_DELAY": 5})
	require.NoError(t, err)
	assert.Equal(t, float64(5), spider.Settings["DOWNLOAD_DELAY"])
}

func TestSpidersDelete(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/spiders/products", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.Spiders.Delete(context.Background(), "p1", "products"))
}

func TestSpidersValidation(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))

	ctx := context.Background()
	var valErr *ValidationError

	_, err := client.Spiders.List(ctx, "")
	require.ErrorAs(t, err, &valErr)

	_, err = client.Spiders.Get(ctx, "p1", "")
	require.ErrorAs(t, err, &valErr)

	_, err = client.Spiders.Get(ctx, "", "products")
	require.ErrorAs(t, err, &valErr)

	err = client.Spiders.Deploy(ctx, "p1", "", strings.NewReader("x"), nil)
	require.ErrorAs(t, err, &valErr)

	err = client.Spiders.Delete(ctx, "", "products")
	require.ErrorAs(t, err, &valErr)

	assert.Equal(t, int32(0), requests.Load())
}
