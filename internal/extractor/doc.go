// Package extractor reads the parts of a rendered documentation page that
// docdrift cares about: the page heading, the anchor links, and whether the
// page is the site's "not found" placeholder.
//
// Selectors are site specific. The defaults match sites that render the page
// heading inside a <header> element and show a "Page not found" <h2> on
// missing routes; other layouts override them through options or the
// per-site configuration file.
package extractor
