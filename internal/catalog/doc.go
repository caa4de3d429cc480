// Package catalog provides the content catalog used to resolve the cards of a
// content unit: a read-through cache in front of a store.CatalogStore and
// importers that load units from YAML manifests and Excel workbooks.
package catalog
