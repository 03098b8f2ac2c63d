package models

type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
