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

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/commands"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/cor"
	test "github.com/jaycherian/gcp-go-dreamboard/internal/testutil"
)

func chainContext(payload string) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, payload)
	return ctx
}

func TestUploadTriggerExtractsGCSObject(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object")
	ctx := chainContext(test.GetTestUploadMessageText())

	require.True(t, cmd.IsExecutable(ctx))
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	obj, ok := ctx.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	require.True(t, ok)
	assert.Equal(t, "dreamboard_uploads", obj.Bucket)
	assert.Equal(t, "user-001/story-001/scene-001/reference.png", obj.Name)
	assert.Equal(t, "image/png", obj.MIMEType)

	// The object is also the output for the next command in the chain.
	assert.Equal(t, obj, ctx.Get(cmd.GetOutputParam()))
}

func TestUploadTriggerKeepsUntypedContentType(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object")
	ctx := chainContext(test.GetTestUntypedUploadMessageText())

	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	obj := ctx.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	assert.Equal(t, "user-001/story-001/scene-002/clip.mp4", obj.Name)
	// The classifier downstream resolves the real type from magic bytes.
	assert.Equal(t, "application/octet-stream", obj.MIMEType)
}

func TestUploadTriggerRejectsMalformedPayload(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object")
	ctx := chainContext("{not-json")

	cmd.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Nil(t, ctx.Get(cloud.GetGCSObjectName()))
}

func TestUploadTriggerRejectsNotificationWithoutLocation(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object")
	ctx := chainContext(`{"kind": "storage#object", "contentType": "image/png"}`)

	cmd.Execute(ctx)

	assert.True(t, ctx.HasErrors())
}

func TestUploadTriggerNotExecutableWithoutInput(t *testing.T) {
	cmd := commands.NewUploadTriggerToGCSObject("upload-trigger-to-gcs-object")
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())

	assert.False(t, cmd.IsExecutable(ctx))
}
