// Package warm orchestrates the nightly maintenance pass: bucket
// pre-warming, retention sweeping, and engagement score refresh.
package warm
