// Package resources synchronizes the remote resource set of a post.
//
// A post owns three slots in the asset store, all under posts/{slug}/:
//
//	{slug}-index                  markdown body (raw)
//	{slug}-cover-image            cover image
//	gallery/{slug}-gallery-{n}    gallery images, n starting at 1
//
// Synchronize lists the namespace, uploads the cover and new gallery images
// concurrently, applies gallery deletions, and only then rewrites and uploads
// the markdown body so its image references resolve to the fresh gallery
// URLs. Slots fail independently; failures come back as SlotErrors next to a
// bundle that keeps the previous URL of every failed slot. There is no
// rollback and no locking between concurrent calls for the same post.
package resources
