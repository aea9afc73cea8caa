// Package crawler turns WWDC session pages into records.
//
// HTTPFetcher downloads <base_url>/wwdc<year>/<id>/ with a browser or simple
// client profile and extracts the title, description, chapters, transcript,
// sample code and links with goquery. ExecFetcher delegates to an external
// command instead. Both return a *record.Record; HTTP 404 maps to
// services.ErrNotFound and every other failure to services.ErrExternalTool or
// services.ErrTimeout.
package crawler
