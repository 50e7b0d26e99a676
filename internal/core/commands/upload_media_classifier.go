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

// This file defines the second command in the upload registration
// workflow: resolving the uploaded object's real media type.
//
// Logic Flow:
// Browser uploads often arrive with a missing or generic content type
// (e.g. "application/octet-stream"), so the notification's content type
// cannot be trusted on its own.
//
//  1. The command receives the GCSObject from the previous command.
//  2. When the content type already names an image or video, it is kept.
//  3. Otherwise the command reads the first few hundred bytes of the
//     object and matches them against known file signatures.
//  4. Objects that are neither images nor videos fail the chain: the
//     upload bucket only registers media.
package commands

import (
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/cor"
)

// sniffLength is how many leading bytes are needed to match every file
// signature the filetype library knows.
const sniffLength = 261

// UploadMediaClassifier resolves the true MIME type of an uploaded object,
// sniffing the object's magic bytes when the notification's content type
// is absent or generic.
type UploadMediaClassifier struct {
	cor.BaseCommand
	storageClient *storage.Client
}

// NewUploadMediaClassifier is the constructor for the UploadMediaClassifier
// command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - storageClient: The GCS client used to read the object's head bytes.
//
// Outputs:
//   - *UploadMediaClassifier: A pointer to the newly instantiated command.
func NewUploadMediaClassifier(name string, storageClient *storage.Client) *UploadMediaClassifier {
	return &UploadMediaClassifier{
		BaseCommand:   *cor.NewBaseCommand(name),
		storageClient: storageClient,
	}
}

// Execute resolves the media type of the object carried in the context.
func (c *UploadMediaClassifier) Execute(context cor.Context) {
	obj := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	if !isMediaType(obj.MIMEType) {
		mime, err := c.sniff(context, obj)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
		obj.MIMEType = mime
	}

	if !isMediaType(obj.MIMEType) {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(),
			fmt.Errorf("object %s/%s is not an image or video (%s)", obj.Bucket, obj.Name, obj.MIMEType))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), obj)
}

// sniff reads the object's leading bytes and matches them against known
// file signatures.
func (c *UploadMediaClassifier) sniff(context cor.Context, obj *cloud.GCSObject) (string, error) {
	r, err := c.storageClient.Bucket(obj.Bucket).Object(obj.Name).NewRangeReader(context.GetContext(), 0, sniffLength)
	if err != nil {
		return "", fmt.Errorf("failed to read head of %s/%s: %w", obj.Bucket, obj.Name, err)
	}
	defer func(r *storage.Reader) { _ = r.Close() }(r)

	head, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read head of %s/%s: %w", obj.Bucket, obj.Name, err)
	}

	kind, err := filetype.Match(head)
	if err != nil {
		return "", fmt.Errorf("failed to match file signature of %s/%s: %w", obj.Bucket, obj.Name, err)
	}
	if kind == filetype.Unknown {
		return "", fmt.Errorf("object %s/%s has no recognizable file signature", obj.Bucket, obj.Name)
	}
	return kind.MIME.Value, nil
}

// isMediaType reports whether a content type names an image or a video.
// Generic types like "application/octet-stream" return false.
func isMediaType(mime string) bool {
	return strings.HasPrefix(mime, "image/") || strings.HasPrefix(mime, "video/")
}
