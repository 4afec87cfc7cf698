// Package stage defines the capability contract every schedulable unit of
// work implements, plus Base, the shared identity/paths/settings plumbing
// concrete stages embed.
package stage
