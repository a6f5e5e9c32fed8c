// Package generic implements a providers.Scraper for any site described
// by a sites.Site: chapter and novel pages are fetched and reduced with
// the site's selectors.
package generic
