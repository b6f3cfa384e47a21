package schema

const (
	Customers  = "customers"
	Products   = "products"
	Orders     = "orders"
	OrderItems = "order_items"
	Payments   = "payments"
)

var Categories = []string{
	"Electronics", "Clothing", "Home & Garden", "Books", "Sports",
	"Beauty", "Toys", "Automotive", "Jewelry", "Health",
}

var PaymentMethods = []string{"card", "paypal", "bank"}

func ref(table, column string) *ForeignKey {
	return &ForeignKey{RefTable: table, RefColumn: column}
}

// Ecommerce returns the five-table storefront catalog in declaration order.
func Ecommerce() *Catalog {
	c := &Catalog{Tables: []*Table{
		{
			Name: Customers,
			Columns: []Column{
				{Name: "customer_id", Type: TypeInt, PrimaryKey: true, Min: Inclusive(1)},
				{Name: "first_name", Type: TypeText, MinLength: 1},
				{Name: "last_name", Type: TypeText, MinLength: 1},
				{Name: "email", Type: TypeText, MinLength: 3, Unique: true},
				{Name: "signup_date", Type: TypeDate, NotAfterReference: true, Index: true},
			},
		},
		{
			Name: Products,
			Columns: []Column{
				{Name: "product_id", Type: TypeInt, PrimaryKey: true, Min: Inclusive(1)},
				{Name: "name", Type: TypeText, MinLength: 1},
				{Name: "category", Type: TypeText, Enum: Categories, Index: true},
				{Name: "price", Type: TypeMoney, Min: Exclusive(0)},
			},
		},
		{
			Name: Orders,
			Columns: []Column{
				{Name: "order_id", Type: TypeInt, PrimaryKey: true, Min: Inclusive(1)},
				{Name: "customer_id", Type: TypeInt, References: ref(Customers, "customer_id"), Index: true},
				{Name: "order_date", Type: TypeDate, NotAfterReference: true, Index: true},
				{Name: "total_amount", Type: TypeMoney, Min: Inclusive(0)},
			},
			Rules: []Rule{
				{Kind: RuleNotBefore, Column: "order_date", ForeignKey: "customer_id", ParentColumn: "signup_date"},
			},
		},
		{
			Name: OrderItems,
			Columns: []Column{
				{Name: "order_item_id", Type: TypeInt, PrimaryKey: true, Min: Inclusive(1)},
				{Name: "order_id", Type: TypeInt, References: ref(Orders, "order_id"), Index: true},
				{Name: "product_id", Type: TypeInt, References: ref(Products, "product_id"), Index: true},
				{Name: "quantity", Type: TypeInt, Min: Exclusive(0)},
				{Name: "line_total", Type: TypeMoney, Min: Inclusive(0)},
			},
			Rules: []Rule{
				{Kind: RuleProductOf, Column: "line_total", Factor: "quantity", ForeignKey: "product_id", ParentColumn: "price"},
				{Kind: RuleParentSum, Column: "line_total", ForeignKey: "order_id", ParentColumn: "total_amount"},
			},
		},
		{
			Name: Payments,
			Columns: []Column{
				{Name: "payment_id", Type: TypeInt, PrimaryKey: true, Min: Inclusive(1)},
				{Name: "order_id", Type: TypeInt, References: ref(Orders, "order_id"), Index: true},
				{Name: "payment_method", Type: TypeText, Enum: PaymentMethods},
				{Name: "amount", Type: TypeMoney, Min: Inclusive(0)},
				{Name: "payment_date", Type: TypeDate, Index: true},
			},
			Rules: []Rule{
				{Kind: RuleNotBefore, Column: "payment_date", ForeignKey: "order_id", ParentColumn: "order_date"},
			},
		},
	}}

	for _, t := range c.Tables {
		for i := range t.Columns {
			if fk := t.Columns[i].References; fk != nil {
				fk.Column = t.Columns[i].Name
			}
		}
	}
	return c
}
