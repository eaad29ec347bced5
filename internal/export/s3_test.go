package export

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Uploader_Upload(t *testing.T) {
	var gotMethod, gotPath, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "us-west-2",
		Credentials:  aws.AnonymousCredentials{},
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	u := NewS3UploaderWithClient(client, "burn-exports")

	err := u.Upload(context.Background(), "seeds/precomputed.json", []byte(`{"status":"ok","data":[]}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/burn-exports/seeds/precomputed.json", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"status":"ok","data":[]}`, gotBody)
}

func TestS3Uploader_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code></Error>`))
	}))
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:       "us-west-2",
		Credentials:  aws.AnonymousCredentials{},
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
	})
	u := NewS3UploaderWithClient(client, "burn-exports")

	err := u.Upload(context.Background(), "seeds/precomputed.json", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seeds/precomputed.json")
}
