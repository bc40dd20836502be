//go:build !wasm
// +build !wasm

// Package gae provides Google Cloud Datastore implementations of the authpage
// store interfaces. It supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
//   - Artifact: root of an application's data, keyed by app id
//   - User: child of Artifact, keyed by uid
//   - Profile: child of User, keyed by "data"; the sign-up profile document
//   - Account: local email/password accounts, keyed by normalized email
//
// The Artifact/User/Profile ancestor chain mirrors the document path
// artifacts/{appID}/users/{uid}/profile/data.
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	profiles := gae.NewProfileStore(client, "")   // default namespace
//	accounts := gae.NewAccountStore(client, "tenant-123")
package gae
