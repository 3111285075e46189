package domain

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Price       float64 `json:"price"`
	CategoryID  string  `json:"categoryId"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
	Image string `json:"image"`
}

type Testimonial struct {
	Avatar string `json:"avatar"`
	Quote  string `json:"quote"`
	Name   string `json:"name"`
}
