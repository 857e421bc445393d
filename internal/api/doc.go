// Package api serves the easyshop-api REST interface.
//
// # Routes
//
// Authenticated (bearer JWT):
//
//	POST   /api/stores                    create a store for the caller
//	GET    /api/stores                    list the caller's active stores
//	GET    /api/stores/{id}               get one store
//	PUT    /api/stores/{id}               partial update (PATCH is an alias)
//	DELETE /api/stores/{id}               soft delete
//	POST   /api/products                  create a product in an owned store
//	GET    /api/stores/{id}/products      list a store's products
//	GET    /api/products/{id}             get / PUT / PATCH / DELETE
//	POST   /api/pages                     create a page in an owned store
//	GET    /api/stores/{id}/pages         list a store's pages
//	GET    /api/pages/{id}                get / PUT / PATCH / DELETE
//	POST   /api/ai/generate-store-content
//	POST   /api/ai/generate-product-description
//
// Public:
//
//	GET  /health, /health/ready
//	GET  /api/public/stores/{id}/pages/{slug}   published pages of active stores
//	POST /api/ai/test-generation                model probe
//
// Resources that exist but belong to someone else answer 404. Creating a product
// or page in a store the caller does not own answers 403. Errors are JSON
// objects of the form {"error": "..."}.
package api
