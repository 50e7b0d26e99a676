// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the DreamBoard backend server.
//
// This application sets up and runs a web server using the Gin framework. It provides
// a REST API for brainstorming video stories, generating scene images and video clips,
// and assembling the generated segments into a final video. The server is instrumented
// with OpenTelemetry for logging, tracing, and metrics.
//
// The main function initializes the application's configuration, sets up logging and
// telemetry, and initializes the application state, including clients for Google Cloud
// services. It defines API routes for story persistence, brainstorming, image and video
// generation, and video editing (merge, overlays, frame extraction).
//
// The server also manages a background Pub/Sub listener that registers user media
// uploads on their stories when new files land in the upload bucket.
//
// Functions:
//   - main: The entry point. Sets up the server, configures routes, initializes
//     services, and handles graceful shutdown.
//   - StoryRouter: Routes for story persistence and brainstorming.
//   - PromptRouter: Routes for prompt writing and enhancement.
//   - GenerationRouter: Routes for image, portrait, and video generation.
//   - EditingRouter: Routes for merging, overlays, and frame extraction.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-dreamboard/internal/core/model"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
	"github.com/jaycherian/gcp-go-dreamboard/internal/telemetry"
)

// main is the primary entry point for the application.
// It orchestrates the setup of logging, telemetry, configuration, cloud services,
// the web server, API routes, and background listeners. It also handles graceful
// shutdown of the server upon receiving an interrupt signal.
func main() {
	// Initialize structured logging for the application.
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// Create the root context for the application.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load application configuration from TOML files.
	config := GetConfig()

	// Initialize OpenTelemetry for distributed tracing and metrics.
	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Initialize the application's state, including all necessary service clients.
	InitState(ctx)
	slog.Info("Initialized State")

	// Set up the Gin web server with default middleware.
	r := gin.Default()

	// Add OpenTelemetry middleware to the Gin router to trace incoming requests.
	r.Use(otelgin.Middleware("dreamboard-server"))

	// Configure Cross-Origin Resource Sharing (CORS) middleware.
	// Using cors.Default() provides a permissive configuration suitable for
	// development, allowing requests from any origin.
	r.Use(cors.Default())

	// Liveness probe.
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Group routes under the "/api/v1" prefix.
	apiV1 := r.Group("/api/v1")
	{
		StoryRouter(apiV1)
		PromptRouter(apiV1)
		GenerationRouter(apiV1)
		EditingRouter(apiV1)
	}

	// Configure the HTTP server with the address and handler. Video
	// generation requests block while Veo operations poll, so the write
	// timeout is generous.
	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 15 * time.Minute,
	}

	// Start the HTTP server in a separate goroutine so it doesn't block the main thread.
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	// Block until an OS interrupt signal is received.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// StoryRouter sets up the API routes for story persistence and brainstorming.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the story routes will be added.
//
// This function defines the following endpoints:
//   - POST   /users/:user_id/stories: Saves a story document.
//   - GET    /users/:user_id/stories: Lists the user's stories.
//   - GET    /users/:user_id/stories/:story_id: Retrieves one story.
//   - DELETE /users/:user_id/stories/:story_id: Deletes one story.
//   - POST   /users/:user_id/stories/brainstorm: Generates story alternatives from an idea.
//   - POST   /users/:user_id/stories/:story_id/scenes: Brainstorms additional scenes onto a story.
func StoryRouter(r *gin.RouterGroup) {
	stories := r.Group("/users/:user_id/stories")
	{
		// Handler for POST /users/:user_id/stories
		stories.POST("", func(c *gin.Context) {
			var story model.StoryItem
			if err := c.ShouldBindJSON(&story); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// The path owns the user; a missing id means a new story.
			story.UserID = c.Param("user_id")
			if story.ID == "" {
				story.ID = uuid.NewString()
			}
			if err := state.storyService.Save(c, &story); err != nil {
				slog.Error("failed to save story", "story", story.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save story"})
				return
			}
			c.JSON(http.StatusOK, &story)
		})

		// Handler for GET /users/:user_id/stories
		stories.GET("", func(c *gin.Context) {
			out, err := state.storyService.List(c, c.Param("user_id"))
			if err != nil {
				slog.Error("failed to list stories", "user", c.Param("user_id"), "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list stories"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for GET /users/:user_id/stories/:story_id
		stories.GET("/:story_id", func(c *gin.Context) {
			out, err := state.storyService.Get(c, c.Param("user_id"), c.Param("story_id"))
			if err != nil {
				if errors.Is(err, services.ErrStoryNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load story"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for DELETE /users/:user_id/stories/:story_id
		stories.DELETE("/:story_id", func(c *gin.Context) {
			if err := state.storyService.Delete(c, c.Param("user_id"), c.Param("story_id")); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete story"})
				return
			}
			c.Status(http.StatusNoContent)
		})

		// Handler for POST /users/:user_id/stories/brainstorm
		// Generates story alternatives without persisting them; the client
		// saves the one the user picks.
		stories.POST("/brainstorm", func(c *gin.Context) {
			var req model.BrainstormRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.textService.BrainstormStories(c, c.Param("user_id"), &req)
			if err != nil {
				slog.Error("brainstorming failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "brainstorming failed"})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /users/:user_id/stories/:story_id/scenes?count=<n>
		stories.POST("/:story_id/scenes", func(c *gin.Context) {
			count, err := strconv.Atoi(c.DefaultQuery("count", "1"))
			if err != nil {
				count = 1
			}
			story, err := state.storyService.Get(c, c.Param("user_id"), c.Param("story_id"))
			if err != nil {
				if errors.Is(err, services.ErrStoryNotFound) {
					c.JSON(http.StatusNotFound, gin.H{"error": "story not found"})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load story"})
				return
			}
			if err = state.textService.BrainstormScenes(c, story, count); err != nil {
				slog.Error("scene brainstorming failed", "story", story.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "scene brainstorming failed"})
				return
			}
			if err = state.storyService.Save(c, story); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save story"})
				return
			}
			c.JSON(http.StatusOK, story)
		})
	}
}

// promptRequest is the body shared by the prompt-writing endpoints.
type promptRequest struct {
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
}

// PromptRouter sets up the API routes for prompt writing.
//
// This function defines the following endpoints:
//   - POST /prompts/image: Writes an image generation prompt from a scene description.
//   - POST /prompts/video: Writes a video generation prompt from a scene description.
//   - POST /prompts/enhance: Rewrites a user prompt for richer output.
func PromptRouter(r *gin.RouterGroup) {
	prompts := r.Group("/prompts")
	{
		prompts.POST("/image", func(c *gin.Context) {
			var req promptRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
				return
			}
			out, err := state.textService.CreateImagePrompt(c, req.Description)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "prompt generation failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"prompt": out})
		})

		prompts.POST("/video", func(c *gin.Context) {
			var req promptRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
				return
			}
			out, err := state.textService.CreateVideoPrompt(c, req.Description)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "prompt generation failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"prompt": out})
		})

		prompts.POST("/enhance", func(c *gin.Context) {
			var req promptRequest
			if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
				return
			}
			out, err := state.textService.EnhancePrompt(c, req.Prompt)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "prompt enhancement failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"prompt": out})
		})
	}
}

// imageGenerationRequest asks for scene images for a story.
type imageGenerationRequest struct {
	StoryID string             `json:"story_id" binding:"required"`
	Scenes  []*model.SceneItem `json:"scenes" binding:"required"`
}

// portraitGenerationRequest runs the character pipeline for a story.
type portraitGenerationRequest struct {
	Story   *model.StoryItem `json:"story" binding:"required"`
	Style   string           `json:"style"`
	Extract bool             `json:"extract"` // When false only identity resolution runs.
}

// videoGenerationRequest asks for video clips for story segments.
type videoGenerationRequest struct {
	StoryID  string                `json:"story_id" binding:"required"`
	Segments []*model.VideoSegment `json:"segments" binding:"required"`
}

// resumeOperationRequest polls a previously submitted non-blocking operation.
type resumeOperationRequest struct {
	StoryID       string              `json:"story_id" binding:"required"`
	Segment       *model.VideoSegment `json:"segment" binding:"required"`
	OperationName string              `json:"operation_name" binding:"required"`
}

// GenerationRouter sets up the API routes for media generation.
//
// This function defines the following endpoints:
//   - POST /generation/images: Generates images for scenes in parallel.
//   - POST /generation/characters: Resolves character identity and generates portraits.
//   - POST /generation/videos?wait=<bool>: Generates clips for segments in parallel.
//     With wait=false the operations are submitted and their names returned for
//     later polling.
//   - POST /generation/videos/resume: Polls a submitted operation to completion.
func GenerationRouter(r *gin.RouterGroup) {
	gen := r.Group("/generation")
	{
		// Handler for POST /generation/images
		gen.POST("/images", func(c *gin.Context) {
			var req imageGenerationRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out := state.imageService.GenerateImagesFromScenes(c, req.StoryID, req.Scenes)
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /generation/characters
		gen.POST("/characters", func(c *gin.Context) {
			var req portraitGenerationRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := state.imageService.GenerateCharacterPortraits(c, req.Story, req.Style, req.Extract); err != nil {
				slog.Error("portrait generation failed", "story", req.Story.ID, "error", err)
				// The story still carries whatever portraits succeeded.
				c.JSON(http.StatusOK, gin.H{"story": req.Story, "error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"story": req.Story})
		})

		// Handler for POST /generation/videos?wait=<bool>
		gen.POST("/videos", func(c *gin.Context) {
			var req videoGenerationRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			wait, err := strconv.ParseBool(c.DefaultQuery("wait", "true"))
			if err != nil {
				wait = true
			}
			out := state.videoService.GenerateVideosFromScenes(c, req.StoryID, req.Segments, wait)
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /generation/videos/resume
		gen.POST("/videos/resume", func(c *gin.Context) {
			var req resumeOperationRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out := state.videoService.ResumeOperation(c, req.StoryID, req.Segment, req.OperationName)
			c.JSON(http.StatusOK, out)
		})
	}
}

// textOverlayRequest composites text overlays onto a story video.
type textOverlayRequest struct {
	StoryID  string                `json:"story_id" binding:"required"`
	Video    *model.VideoReference `json:"video" binding:"required"`
	Overlays []model.TextOverlay   `json:"overlays" binding:"required"`
}

// logoOverlayRequest composites a logo onto a story video.
type logoOverlayRequest struct {
	StoryID string                `json:"story_id" binding:"required"`
	Video   *model.VideoReference `json:"video" binding:"required"`
	Logo    *model.LogoOverlay    `json:"logo" binding:"required"`
}

// frameExtractionRequest samples still frames from a story video.
type frameExtractionRequest struct {
	StoryID     string                `json:"story_id" binding:"required"`
	Video       *model.VideoReference `json:"video" binding:"required"`
	TimeSeconds float64               `json:"time_seconds"`
	Count       int                   `json:"count"`
}

// EditingRouter sets up the API routes for video assembly.
//
// This function defines the following endpoints:
//   - POST /editing/merge: Merges the included segments of a story into one video.
//   - POST /editing/overlays/text: Applies text overlays to an existing video.
//   - POST /editing/overlays/logo: Applies a logo overlay to an existing video.
//   - POST /editing/frames: Extracts still frames from a video.
func EditingRouter(r *gin.RouterGroup) {
	editing := r.Group("/editing")
	{
		// Handler for POST /editing/merge
		editing.POST("/merge", func(c *gin.Context) {
			var spec model.MergeSpec
			if err := c.ShouldBindJSON(&spec); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.mergeEngine.Merge(c, &spec)
			if err != nil {
				slog.Error("merge failed", "story", spec.StoryID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /editing/overlays/text
		editing.POST("/overlays/text", func(c *gin.Context) {
			var req textOverlayRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.mergeEngine.ApplyTextOverlays(c, req.StoryID, req.Video, req.Overlays)
			if err != nil {
				slog.Error("text overlay failed", "story", req.StoryID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /editing/overlays/logo
		editing.POST("/overlays/logo", func(c *gin.Context) {
			var req logoOverlayRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.mergeEngine.ApplyLogoOverlay(c, req.StoryID, req.Video, req.Logo)
			if err != nil {
				slog.Error("logo overlay failed", "story", req.StoryID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for POST /editing/frames
		editing.POST("/frames", func(c *gin.Context) {
			var req frameExtractionRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			out, err := state.mergeEngine.ExtractFrames(c, req.StoryID, &model.FrameExtractionRequest{
				Video:       req.Video,
				TimeSeconds: req.TimeSeconds,
				Count:       req.Count,
			})
			if err != nil {
				slog.Error("frame extraction failed", "story", req.StoryID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
