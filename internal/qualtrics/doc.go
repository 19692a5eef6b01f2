// Package qualtrics provides a client for the Qualtrics survey response
// export API (API v3 export-responses).
//
// The export workflow is asynchronous on the platform side:
//
//	// Start an export job
//	progressID, err := client.StartExport(ctx, qualtrics.ExportRequest{Format: "csv", Compress: true})
//
//	// Block until the platform reports a terminal status
//	fileID, err := client.WaitUntilComplete(ctx, progressID, 2*time.Second, 10*time.Minute)
//
//	// Fetch the compressed result
//	archive, err := client.DownloadArchive(ctx, fileID)
//
// Every call performs exactly one rate-limited round trip; the only state
// carried between calls is the opaque progress ID and file ID the platform
// hands back.
package qualtrics
