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

// Package main contains the setup and initialization logic for the application's state.
// This file is responsible for creating and managing a centralized state manager
// that holds all shared dependencies: configuration, Google Cloud service clients,
// and the application-level services for brainstorming, generation, storage, and
// video assembly.
//
// It ensures that the application is configured correctly based on the environment,
// initializes all necessary clients (Storage, Pub/Sub, GenAI, Firestore, IAM), and
// starts background processes like the upload registration listener.
//
// Functions:
//   - SetupOS: Configures the environment variables the configuration loader uses
//     to find the correct TOML files.
//   - GetConfig: A singleton function that loads the application's configuration
//     from TOML files. It ensures the configuration is loaded only once.
//   - InitState: The core initialization function that creates all service clients,
//     wires the application services together, and starts the Pub/Sub listeners.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-dreamboard/internal/cloud"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/generation"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/merge"
	"github.com/jaycherian/gcp-go-dreamboard/internal/core/services"
)

// brainstormAgentName is the logical name of the agent model used for
// brainstorming and prompt writing, as configured under [agent_models].
const brainstormAgentName = "creative-flash"

// StateManager holds all the shared dependencies for the application, acting as a
// centralized container for service clients and services. This avoids the need
// for scattered global variables and makes dependency management cleaner.
type StateManager struct {
	config         *cloud.Config
	cloud          *cloud.ServiceClients
	storageService *services.StorageService
	storyService   *services.StoryService
	textService    *services.TextService
	imageService   *services.ImageService
	videoService   *services.VideoService
	mergeEngine    *merge.Engine
}

// state is a package-level variable that holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables that the configuration loader
// uses to find the correct TOML files.
//
// This function sets the prefix for the configuration directory and specifies
// the runtime environment (e.g., "local", "test", "prod"), allowing for
// environment-specific overrides of the base configuration.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	// Set the directory where configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// Set the current runtime environment to "local". The config loader will
	// look for a ".env.local.toml" file to override base settings.
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration.
// It ensures that the configuration is loaded from the file system only once.
// On the first call, it sets up the OS environment and loads the configuration
// from the TOML files. Subsequent calls return the cached configuration.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state.
// It orchestrates the creation of all necessary services and clients based on
// the application configuration and wires them together.
//
// Inputs:
//   - ctx: The root context.Context for the application, used for managing
//     the lifecycle of client connections and background processes.
//
// This function performs the following steps:
//  1. Loads the application configuration.
//  2. Initializes all Google Cloud service clients (Storage, Pub/Sub, GenAI,
//     Firestore, IAM).
//  3. Builds the generation pipeline: the backend gateway, the retrying
//     controller, and the parallel dispatcher sized by the configured
//     thread pool.
//  4. Instantiates the application services (storage, stories, brainstorming,
//     images, videos, merge engine) with their dependencies.
//  5. Sets up and starts the Pub/Sub listener that registers user uploads.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	// The storage and story services are the data access layer everything
	// else builds on.
	state.storageService = services.NewStorageService(cloudClients, config)
	state.storyService = services.NewStoryService(cloudClients, config)

	// The brainstorming agent drives all text generation.
	state.textService, err = services.NewTextService(config, cloudClients.AgentModels[brainstormAgentName])
	if err != nil {
		panic(err)
	}

	// The generation pipeline: one gateway to the Veo/Imagen/Gemini
	// backends, a controller that owns retry and polling, and a dispatcher
	// that fans segment tasks out over a bounded worker pool.
	gateway := cloud.NewGenerationGateway(cloudClients, config, brainstormAgentName)
	controller := generation.NewController(gateway)
	dispatcher := generation.NewDispatcher(controller, config.Application.ThreadPoolSize)

	state.imageService = services.NewImageService(dispatcher, state.storageService)
	state.videoService = services.NewVideoService(gateway, state.storageService, config.Application.ThreadPoolSize)
	state.mergeEngine = merge.NewEngine(state.storageService, config)

	// Configure and start the Pub/Sub listeners that react to GCS bucket events.
	SetupListeners(ctx, cloudClients, state.storyService, state.storageService)
}
