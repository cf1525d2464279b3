// Package story models storybook collections and where their artifacts live.
//
// A collection file (JSON or YAML, {"storyCollection":[{"story":{...}}]})
// lists stories; each story names the scripture book it narrates and a page
// list with verse ranges, an illustration, and the start and end viewport of
// the page's pan/zoom. Layout derives every scratch and output path from the
// story's file stem and the page number so all stages agree on file names.
package story
