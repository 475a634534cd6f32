// Package digest builds and sends the biweekly email digest: every
// opportunity closing within the next two weeks plus everything newly
// scraped since the last digest, rendered as HTML and delivered over
// SMTP.
package digest
