package uploader

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimeter-studio/uploader/errors"
	"github.com/perimeter-studio/uploader/uptypes"
)

func TestClient_RegisterGalleryImage(t *testing.T) {
	var received struct {
		s3URL     string
		caption   string
		isPrimary string
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects/7/register_s3_image/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		received.s3URL = r.FormValue("s3_url")
		received.caption = r.FormValue("caption")
		received.isPrimary = r.FormValue("is_primary")

		fmt.Fprint(w, `{"id": 42}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(server.URL, WithTokenProvider(uptypes.StaticToken(testToken)))
	require.NoError(t, err)

	id, err := client.RegisterGalleryImage(t.Context(), "7", uptypes.GalleryImage{
		SourceURL: "https://store.example/folder/name.png",
		Caption:   "front view",
		IsPrimary: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "42", id)
	assert.Equal(t, "https://store.example/folder/name.png", received.s3URL)
	assert.Equal(t, "front view", received.caption)
	assert.Equal(t, "true", received.isPrimary)
}

func TestClient_RegisterGalleryImage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		projectID  string
		sourceURL  string
		wantSentry func(error) bool
	}{
		{
			name:       "backend refusal",
			status:     http.StatusBadRequest,
			projectID:  "7",
			sourceURL:  "https://store.example/a.png",
			wantSentry: errors.IsRegistration,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			projectID:  "7",
			sourceURL:  "https://store.example/a.png",
			wantSentry: errors.IsAuthentication,
		},
		{
			name:       "empty project ID",
			status:     http.StatusOK,
			projectID:  "",
			sourceURL:  "https://store.example/a.png",
			wantSentry: errors.IsInvalidInput,
		},
		{
			name:       "empty source URL",
			status:     http.StatusOK,
			projectID:  "7",
			sourceURL:  "",
			wantSentry: errors.IsInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := New(server.URL, WithTokenProvider(uptypes.StaticToken(testToken)))
			require.NoError(t, err)

			_, err = client.RegisterGalleryImage(t.Context(), tt.projectID, uptypes.GalleryImage{
				SourceURL: tt.sourceURL,
			})
			require.Error(t, err)
			assert.True(t, tt.wantSentry(err))
		})
	}
}

func TestClient_SetPrimaryImage(t *testing.T) {
	t.Run("preferred endpoint succeeds", func(t *testing.T) {
		var preferred, legacy int

		mux := http.NewServeMux()
		mux.HandleFunc("/api/projects/7/set_primary_image/", func(w http.ResponseWriter, r *http.Request) {
			preferred++
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "42", body["image_id"])
		})
		mux.HandleFunc("/api/projects/7/upload_image/", func(w http.ResponseWriter, r *http.Request) {
			legacy++
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := New(server.URL, WithTokenProvider(uptypes.StaticToken(testToken)))
		require.NoError(t, err)

		records, err := client.SetPrimaryImage(t.Context(), "7", "42")
		require.NoError(t, err)
		assert.Nil(t, records)
		assert.Equal(t, 1, preferred)
		assert.Equal(t, 0, legacy, "legacy endpoint not tried after success")
	})

	t.Run("falls back to legacy endpoint", func(t *testing.T) {
		var legacy int

		mux := http.NewServeMux()
		mux.HandleFunc("/api/projects/7/set_primary_image/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		mux.HandleFunc("/api/projects/7/upload_image/", func(w http.ResponseWriter, r *http.Request) {
			legacy++
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "42", body["image_id"])
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := New(server.URL, WithTokenProvider(uptypes.StaticToken(testToken)))
		require.NoError(t, err)

		records, err := client.SetPrimaryImage(t.Context(), "7", "42")
		require.NoError(t, err)
		assert.Nil(t, records)
		assert.Equal(t, 1, legacy)
	})

	t.Run("both tiers fail and gallery is reconciled", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/projects/7/set_primary_image/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("/api/projects/7/upload_image/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("/api/projects/7/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			fmt.Fprint(w, `{"gallery_images": [
				{"id": 41, "image": "https://store.example/a.png", "caption": "a", "is_primary": true},
				{"id": 42, "image": "https://store.example/b.png", "caption": "b", "is_primary": false}
			]}`)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client, err := New(server.URL, WithTokenProvider(uptypes.StaticToken(testToken)))
		require.NoError(t, err)

		records, err := client.SetPrimaryImage(t.Context(), "7", "42")
		require.Error(t, err)
		assert.True(t, errors.IsRegistration(err))

		require.Len(t, records, 2)
		assert.Equal(t, "41", records[0].ID)
		assert.True(t, records[0].IsPrimary)
		assert.Equal(t, "42", records[1].ID)
		assert.False(t, records[1].IsPrimary)
	})

	t.Run("empty IDs rejected", func(t *testing.T) {
		client, err := New("https://backend.example")
		require.NoError(t, err)

		_, err = client.SetPrimaryImage(t.Context(), "", "42")
		assert.True(t, errors.IsInvalidInput(err))

		_, err = client.SetPrimaryImage(t.Context(), "7", "")
		assert.True(t, errors.IsInvalidInput(err))
	})
}

func TestClient_UploadGallery(t *testing.T) {
	memFS := billy.NewInMemoryFS()
	require.NoError(t, memFS.WriteFile("photos/a.png", []byte("first image bytes"), 0o644))
	require.NoError(t, memFS.WriteFile("photos/b.png", []byte("second image bytes"), 0o644))

	var mu sync.Mutex
	registered := map[string]bool{}
	nextID := 100

	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]string{
			"file_url": "https://cdn.example/uploads/" + header.Filename,
		})
	})
	mux.HandleFunc("/api/projects/7/register_s3_image/", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		mu.Lock()
		registered[r.FormValue("s3_url")] = true
		id := nextID
		nextID++
		mu.Unlock()

		fmt.Fprintf(w, `{"id": %d}`, id)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(server.URL,
		WithTokenProvider(uptypes.StaticToken(testToken)),
		WithFilesystem(memFS),
		WithConcurrency(2),
	)
	require.NoError(t, err)

	records, err := client.UploadGallery(t.Context(), "7", []uptypes.GalleryUpload{
		{Path: "photos/a.png", Caption: "first", IsPrimary: true},
		{Path: "photos/b.png", Caption: "second"},
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "https://cdn.example/uploads/a.png", records[0].Image)
	assert.Equal(t, "first", records[0].Caption)
	assert.True(t, records[0].IsPrimary)
	assert.Equal(t, "https://cdn.example/uploads/b.png", records[1].Image)
	assert.False(t, records[1].IsPrimary)

	assert.True(t, registered["https://cdn.example/uploads/a.png"])
	assert.True(t, registered["https://cdn.example/uploads/b.png"])
}

func TestClient_UploadGallery_Errors(t *testing.T) {
	t.Run("missing file aborts the batch", func(t *testing.T) {
		memFS := billy.NewInMemoryFS()

		client, err := New("https://backend.example",
			WithTokenProvider(uptypes.StaticToken(testToken)),
			WithFilesystem(memFS),
		)
		require.NoError(t, err)

		_, err = client.UploadGallery(t.Context(), "7", []uptypes.GalleryUpload{
			{Path: "missing.png"},
		})
		require.Error(t, err)
	})

	t.Run("empty batch rejected", func(t *testing.T) {
		client, err := New("https://backend.example")
		require.NoError(t, err)

		_, err = client.UploadGallery(t.Context(), "7", nil)
		assert.True(t, errors.IsInvalidInput(err))
	})
}
