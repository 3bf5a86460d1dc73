// package drive defines the capability interface for a remote drive-style
// storage API and its HTTP implementation.
//
// The [Service] interface covers exactly the calls the migration pipeline
// needs: paginated listing, permission inspection, server-side copies,
// folder creation, permission grants, and deletes. [Client] implements it
// over the drive REST API with oauth2 authentication; the in-memory
// implementation used by tests lives in internal/testing.
package drive
