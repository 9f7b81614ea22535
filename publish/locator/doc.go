// Package locator parses repository URLs into host, owner and repository.
package locator
