// Package api is the HTTP client for the HeartMula music backend: task
// submission, status polling, lyrics generation, projects, uploads, shares,
// and auth. The backend is treated as an opaque collaborator; everything here
// is thin request/response plumbing plus the AwaitTask polling loop.
package api
