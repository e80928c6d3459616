// Copyright 2026 Convoflow Authors. All rights reserved.
// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

/*
Package metrics provides Prometheus-based metrics collection for the Ingress Router and
Channel Processor.

# Overview

Collector registers and records Prometheus metrics using promauto's auto-registration, so
callers never manage a Registry directly. Metrics are isolated by namespace and labeled for
per-channel breakdown.

# Core types

  - Collector: holds the Counter/Histogram vectors for HTTP ingress, pipeline stage outcomes,
    and the CRITICAL-severity alert count.
*/
package metrics
