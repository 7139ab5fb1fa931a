package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Tenji API
// @version 0.1
// @description Interactive documentation for the Tenji accessibility gate API surface.
// @contact.name Tenji Maintainers
// @contact.url https://github.com/raysh454/tenji
// @BasePath /
