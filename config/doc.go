// Copyright 2026 Convoflow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package config provides typed configuration loading for the convoflow Ingress Router and
Channel Processor binaries.

# Overview

Configuration is assembled from three layers, in order: built-in defaults, an optional YAML
file, then environment variable overrides (prefix CONVOFLOW_ by default). There is no
runtime hot-reload: both binaries are short-lived request handlers, so a restart is the
reload mechanism.

# Core types

  - Config: the top-level aggregate — Server, AWS, Queue, Store, Ingress, LLM, Log.
  - Loader: builder-style loader with WithConfigPath, WithEnvPrefix, WithValidator.

# Example

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("CONVOFLOW").
		Load()
*/
package config
