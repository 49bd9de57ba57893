// Package factory provides a small generic registry used to build pluggable
// modules (price sources, metrics sinks) from their raw configuration maps.
package factory
