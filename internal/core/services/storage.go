// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package services contains the business logic of the DreamBoard backend.
// This file defines the StorageService, the data access layer for Google
// Cloud Storage: story asset paths, uploads and downloads, GCS FUSE path
// mapping, and secure time-limited URLs for accessing media files.
//
// Story assets live under a deterministic layout inside the assets bucket:
//
//	gs://{bucket}/{story_id}/videos/...                    generated and merged clips
//	gs://{bucket}/{story_id}/images/...                    scene images
//	gs://{bucket}/{story_id}/images/characters/{char_id}/  character portraits
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
)

// SignedURLValidity is how long generated signed URLs remain usable.
// Matches the product requirement of one week (10080 minutes).
const SignedURLValidity = 7 * 24 * time.Hour

// GCSURIPrefix is the scheme prefix of GCS URIs.
const GCSURIPrefix = "gs://"

// StorageService is the data access layer for story media in GCS. It
// abstracts bucket layout, transfers and URL signing behind story-level
// operations.
type StorageService struct {
	StorageClient *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient     *credentials.IamCredentialsClient // Client for interacting with IAM, used for signing URLs.
	SignerEmail   string                            // The service account email used to sign URLs.
	Config        *cloud.Config
}

// NewStorageService builds the storage service from the shared client set.
func NewStorageService(clients *cloud.ServiceClients, config *cloud.Config) *StorageService {
	return &StorageService{
		StorageClient: clients.StorageClient,
		IAMClient:     clients.IAMClient,
		SignerEmail:   config.Application.SignerServiceAccountEmail,
		Config:        config,
	}
}

// ParseGCSURI splits a "gs://bucket/path/to/object" URI into its bucket
// and object parts.
//
// Outputs:
//   - string: The bucket name.
//   - string: The object name within the bucket.
//   - error: An error when the URI is not a valid GCS URI.
func ParseGCSURI(uri string) (string, string, error) {
	if !strings.HasPrefix(uri, GCSURIPrefix) {
		return "", "", fmt.Errorf("invalid GCS URI format: %s", uri)
	}
	path := strings.TrimPrefix(uri, GCSURIPrefix)
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", uri)
	}
	return parts[0], parts[1], nil
}

// VideosURI returns the GCS folder holding a story's video clips.
func (s *StorageService) VideosURI(storyID string) string {
	return fmt.Sprintf("%s%s/%s/videos", GCSURIPrefix, s.Config.Storage.AssetsBucket, storyID)
}

// ImagesURI returns the GCS folder holding a story's scene images.
func (s *StorageService) ImagesURI(storyID string) string {
	return fmt.Sprintf("%s%s/%s/images", GCSURIPrefix, s.Config.Storage.AssetsBucket, storyID)
}

// SceneImagesURI returns the GCS folder holding the images of one scene.
func (s *StorageService) SceneImagesURI(storyID, sceneID string) string {
	return fmt.Sprintf("%s/%s", s.ImagesURI(storyID), sceneID)
}

// SceneVideosURI returns the GCS folder holding the clips of one scene.
func (s *StorageService) SceneVideosURI(storyID, sceneID string) string {
	return fmt.Sprintf("%s/%s", s.VideosURI(storyID), sceneID)
}

// CharacterImagesURI returns the GCS folder holding one character's
// portrait images.
func (s *StorageService) CharacterImagesURI(storyID, characterID string) string {
	return fmt.Sprintf("%s/characters/%s", s.ImagesURI(storyID), characterID)
}

// FusePath maps a GCS URI to its path under the local FUSE mount, or an
// empty string when no mount point is configured.
func (s *StorageService) FusePath(gcsURI string) string {
	mount := s.Config.Storage.GCSFuseMountPoint
	if mount == "" {
		return ""
	}
	bucket, object, err := ParseGCSURI(gcsURI)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(mount, "/"), bucket, object)
}

// UploadBytes writes data to the assets bucket under objectName and
// returns the resulting GCS URI.
func (s *StorageService) UploadBytes(ctx context.Context, objectName string, data []byte, mimeType string) (string, error) {
	bucket := s.Config.Storage.AssetsBucket
	w := s.StorageClient.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", objectName, err)
	}
	return GCSURIPrefix + bucket + "/" + objectName, nil
}

// UploadFile streams a local file into the assets bucket under objectName
// and returns the resulting GCS URI.
func (s *StorageService) UploadFile(ctx context.Context, localPath, objectName, mimeType string) (string, error) {
	in, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func(f *os.File) { _ = f.Close() }(in)

	bucket := s.Config.Storage.AssetsBucket
	w := s.StorageClient.Bucket(bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err = io.Copy(w, in); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to copy %s to gcs: %w", localPath, err)
	}
	if err = w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", objectName, err)
	}
	return GCSURIPrefix + bucket + "/" + objectName, nil
}

// DownloadToTempFile copies a GCS object to a local temporary file and
// returns its path. Callers own the file and are responsible for removing
// it.
func (s *StorageService) DownloadToTempFile(ctx context.Context, gcsURI string) (string, error) {
	bucket, object, err := ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}
	r, err := s.StorageClient.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open reader for %s: %w", gcsURI, err)
	}
	defer func(r *storage.Reader) { _ = r.Close() }(r)

	tempFile, err := os.CreateTemp("", "dreamboard-media-")
	if err != nil {
		return "", err
	}
	if _, err = io.Copy(tempFile, r); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to download %s: %w", gcsURI, err)
	}
	if err = tempFile.Close(); err != nil {
		return "", err
	}
	return tempFile.Name(), nil
}

// GenerateSignedURL creates a time-limited, secure URL to access a private GCS object.
// This allows clients (like a web browser) to stream media directly from GCS
// without needing their own credentials. The URL is signed via the IAM
// Credentials API using the configured service account, so no local key
// files are required.
//
// Inputs:
//   - ctx: The context for the request.
//   - gcsURI: The URI of the GCS object (e.g., "gs://bucket/object.mp4").
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - error: An error if parsing the URI or signing the URL fails.
func (s *StorageService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	bucketName, objectName, err := ParseGCSURI(gcsURI)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4, // Use the modern and more secure V4 signing scheme.
		Method:         "GET",                   // The URL will only be valid for GET requests.
		Expires:        time.Now().Add(expires), // Set the expiration time.
		GoogleAccessID: s.SignerEmail,

		// SignBytes delegates the signature to the IAM Credentials API,
		// the recommended approach when running on GCP infrastructure.
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).Object(%q).SignedURL: %w", bucketName, objectName, err)
	}
	return u, nil
}

// RefreshVideo fills the transient access fields of a video reference:
// a fresh signed URL and the FUSE path. The durable GCS URI is left
// untouched.
func (s *StorageService) RefreshVideo(ctx context.Context, v *model.VideoReference) error {
	signed, err := s.GenerateSignedURL(ctx, v.GCSURI, SignedURLValidity)
	if err != nil {
		return err
	}
	v.SignedURI = signed
	v.GCSFusePath = s.FusePath(v.GCSURI)
	return nil
}

// RefreshImage fills the transient access fields of an image reference.
func (s *StorageService) RefreshImage(ctx context.Context, img *model.ImageReference) error {
	signed, err := s.GenerateSignedURL(ctx, img.GCSURI, SignedURLValidity)
	if err != nil {
		return err
	}
	img.SignedURI = signed
	img.GCSFusePath = s.FusePath(img.GCSURI)
	return nil
}
