// Package textutil provides text normalization helpers shared by the phrase
// locator, the response parser, and title post-processing.
//
// Normalization is Unicode aware: text is NFC-composed and lowercased with
// golang.org/x/text so that precomposed and decomposed accents compare equal.
package textutil
