// Package coverart downloads release group front covers from the Cover Art
// Archive and normalizes them into fixed-size JPEG files.
//
// Downloads go through gocaa and share the fetch retry policy: a 503 from the
// archive is retried with backoff, anything else (including 404 for release
// groups without art) is returned to the caller. Normalization decodes any
// supported format (JPEG, PNG, GIF, WebP, BMP, TIFF), flattens transparency
// onto black, scales to an exact square with Catmull-Rom, and re-encodes as
// JPEG.
package coverart
