// Package stages provides the concrete stages shipped with Stagehand and the
// default catalog that groups them into ranked categories.
//
// Preprocessing stages run bundled Python scripts from the configured
// scripts directory. Reconstruction stages invoke COLMAP or GLOMAP directly.
// Training runs the FastGS train.py entry point. Every stage reads its
// options from the shared settings store and accepts values typed as strings,
// so "0.9", "true", and "1" all coerce the way a user would expect.
package stages
