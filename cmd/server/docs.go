package main

//go:generate swag init -g cmd/server/main.go -o docs
