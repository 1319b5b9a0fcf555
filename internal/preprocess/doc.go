// Package preprocess prepares log lines for clustering and summarizes the
// resulting clusters.
//
// Masking replaces variable fields (addresses, ids, timestamps, durations)
// with fixed placeholders before analysis, so lines that differ only in
// those fields land in the same cluster:
//
//	m, err := preprocess.NewMasker([]string{"ipv4", "uuid"})
//	masked := m.Mask("GET /users/550e8400-e29b-41d4-a716-446655440000 from 10.0.0.7")
//	// "GET /users/<UUID> from <IPV4>"
//
// Template derives a shared pattern from a cluster's samples:
//
//	preprocess.Template([]string{"user 42 logged in", "user 43 logged in"})
//	// "user <*> logged in"
//
// Configuration via ~/.grasp.yaml:
//
//	clustering:
//	  mask: true
//	  mask_patterns:
//	    - ipv4
//	    - uuid
package preprocess
