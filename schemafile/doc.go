// Package schemafile builds linked mini tables from declarative TOML schema files.
//
// A schema file declares message types and extensions:
//
//	[[message]]
//	name = "shop.Order"
//
//	  [[message.field]]
//	  number = 1
//	  name = "id"
//	  type = "int64"
//
//	  [[message.field]]
//	  number = 2
//	  name = "items"
//	  type = "message"
//	  message = "shop.Item"
//	  label = "repeated"
//
//	  [[message.field]]
//	  number = 3
//	  name = "attrs"
//	  label = "map"
//	  key = "string"
//	  value = "int32"
//
//	  [[message.field]]
//	  number = 4
//	  name = "card"
//	  type = "string"
//	  oneof = "payment"
//
//	[[extension]]
//	extendee = "shop.Order"
//	number = 100
//	name = "note"
//	type = "string"
//
// Types use the names printed by minitable.FieldType.String. The label is one
// of "optional" (the default, explicit presence), "implicit", "repeated" or
// "map". Message references may point at any message of the file, including
// the declaring one.
package schemafile
