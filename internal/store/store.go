// Package store defines the persistence interfaces used by the auth and post
// services. Backends live in the memory, redis and postgres subpackages.
package store
