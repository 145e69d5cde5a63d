// Package scholar implements driven.FetchService over HTTP against a
// Google Scholar compatible profile service.
//
// Requests are paced by a token bucket with a burst of one, so the first
// request goes out immediately and later ones wait RequestInterval. A 429
// or a CAPTCHA page pauses all requests until the Retry-After deadline.
//
// Page reading uses goquery with the selectors the profile service emits
// today. The selectors are an adapter detail and can drift; a page that
// yields nothing recognisable is reported as a parse failure.
package scholar
