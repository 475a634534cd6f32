/*
Package scraper collects fellowship and grant opportunities from RSS
feeds, aggregator listing pages, and direct organization pages.

Scraped records flow through a relevance filter, deduplication against
the existing dataset, interest-based scoring, and expiry archiving
before being written back to the JSON dataset the site generator
consumes. Archived records and the known-source registry live in a
SQLite database; the active dataset stays a plain JSON file so the
site build has no database dependency.
*/
package scraper
