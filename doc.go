// Package uploader provides a high-level Go module for uploading media to
// object storage through a backend-issued presigned credential, with an
// ordered transport fallback and a backend relay path for small files.
//
// The module emphasizes developer experience through simple APIs while
// keeping protocol decisions explicit: strategy selection is a pure function
// of file size, credentials are single-use per file, and the direct path
// falls back exactly once from the proxied transport to the raw transport.
//
// Key features:
//   - Size-based strategy selection between direct and relay uploads
//   - Presigned credential acquisition with typed failure modes
//   - Ordered transport fallback with a single retry via the raw PUT
//   - Byte-accurate or simulated progress tracking, 0-100 and monotonic
//   - Gallery metadata registration with a two-tier primary-image fallback
//   - Context cancellation threaded through every network call
//
// Example usage:
//
//	client, err := uploader.New("https://backend.example",
//	    uploader.WithTokenProvider(uptypes.StaticToken(token)),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Upload a file
//	result, err := client.UploadFile(ctx, "/local/logo.png",
//	    uploader.WithFolder("clients"),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.URL)
package uploader
