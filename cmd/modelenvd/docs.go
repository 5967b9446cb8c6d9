package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           modelenvd API
// @version         1.0
// @description     Read-only HTTP API over the local NLP model registry.
//
// @contact.name   modelenv maintainers
// @contact.url    https://github.com/your-org/modelenv
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
