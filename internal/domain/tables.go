package domain

// Tables lists the models migrated by SQL document stores
var Tables = []interface{}{
	&Product{},
}
