package database

import "fmt"

// Column list shared by every statement. The layout mirrors the serial
// numbers table of the shop plugin.
const serialKeyColumns = `id, serial_key, product_id, activation_limit, activation_count,
			   order_id, order_item_id, vendor_id, status, validity,
			   expire_date, order_date, uuid, source, created_date`

const (
	insertSerialKeyQuery = `
		INSERT INTO %s (
			serial_key, product_id, activation_limit, activation_count,
			order_id, order_item_id, vendor_id, status, validity,
			expire_date, order_date, uuid, source, created_date
		) VALUES (
			:serial_key, :product_id, :activation_limit, :activation_count,
			:order_id, :order_item_id, :vendor_id, :status, :validity,
			:expire_date, :order_date, :uuid, :source, :created_date
		)
	`

	selectSerialKeyQuery = `
		SELECT ` + serialKeyColumns + `
		FROM %s
		WHERE serial_key = ? OR serial_key = ?
		ORDER BY id
		LIMIT 1
	`

	selectSerialKeysByProductQuery = `
		SELECT ` + serialKeyColumns + `
		FROM %s
		WHERE product_id = ?
		ORDER BY id
	`

	countSerialKeysByProductQuery = `
		SELECT COUNT(*) FROM %s WHERE product_id = ?
	`
)

// queries holds the statements rendered for one table. The table name is
// checked with security.ValidateIdentifier before it gets here.
type queries struct {
	insert          string
	selectByKey     string
	selectByProduct string
	countByProduct  string
}

func newQueries(table string) queries {
	return queries{
		insert:          fmt.Sprintf(insertSerialKeyQuery, table),
		selectByKey:     fmt.Sprintf(selectSerialKeyQuery, table),
		selectByProduct: fmt.Sprintf(selectSerialKeysByProductQuery, table),
		countByProduct:  fmt.Sprintf(countSerialKeysByProductQuery, table),
	}
}
