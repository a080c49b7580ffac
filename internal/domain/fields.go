package domain

// FieldNames is the fixed extraction schema, in rendering order.
// Every extracted record carries exactly these fields.
var FieldNames = []string{
	"ticket_number",
	"transaction_date",
	"transaction_time",
	"vendor_name",
	"customer_name",
	"job_location",
	"truck_id",
	"product_name",
	"net_weight_tons",
}
