package types

// ModelsResponse wraps the list of installed models returned by GET /models.
type ModelsResponse struct {
	// List of installed model packages.
	Models []InstalledModel `json:"models"`
}

// AliasesResponse wraps the alias list returned by GET /aliases.
type AliasesResponse struct {
	// Registered aliases.
	Aliases []Alias `json:"aliases"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: alias not registered
	Error string `json:"error" example:"alias not registered"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
