/*
Package blob uploads and deletes block blobs through the Azure blob SDK.

Uploads create the target container on demand:

	client, err := blob.Open(blob.Config{ConnectionString: cs})
	ref, err := client.UploadBlockBlobFromStream(ctx, "reports", "2025/q1.csv", f,
	    &blob.UploadOptions{ContentType: "text/csv"})

An upload is attempted at most three times, and only errors returned by the
storage service are retried. A ContainerNotFound (or 404) failure creates the
container before the next attempt. Transport level retries are left to the SDK
pipeline, configured with exponential backoff starting at 100ms for 10 retries.
*/
package blob
