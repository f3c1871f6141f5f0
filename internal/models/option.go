package models

type Option struct {
	ID       int64   `json:"option_id"`
	Name     string  `json:"option_name"`
	Value    *string `json:"option_value"`
	AutoLoad bool    `json:"auto_load"`
	Group    *string `json:"option_group"`
}
