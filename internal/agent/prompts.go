package agent

import (
	"fmt"
	"strings"

	"catalog/internal/models"
)

const systemPrompt = "You are the catalog's shopping assistant. Answer concisely, stay on the topic of " +
	"the catalog's products, and never invent prices or stock levels."

func searchPrompt(message string) string {
	return fmt.Sprintf(`Help me search for products based on: %q

Analyze this search query and provide:
1. The interpreted search intent
2. Suggested search terms
3. Product categories that might match
4. Price range considerations

Be specific and helpful in guiding the search.`, message)
}

func detailsPrompt(message string) string {
	return fmt.Sprintf(`Help with product details for: %q

Provide guidance on:
1. What specific product information they might need
2. How to find detailed specifications
3. Questions worth asking before buying

Be helpful and informative.`, message)
}

func generalPrompt(message string) string {
	return fmt.Sprintf(`Answer this shopping question: %q

Draw on knowledge of product categories, brands, quality, and buying advice.
Be conversational and helpful.`, message)
}

func summaryPrompt(p *models.Product) string {
	var b strings.Builder
	b.WriteString("Write a short, engaging summary of this product for a shopper.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Price: %s %s\n", p.Price.StringFixed(2), p.Currency)
	if p.Category != nil {
		fmt.Fprintf(&b, "Category: %s\n", p.Category.Name)
	}
	if p.Description != nil && *p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", *p.Description)
	}
	if p.Condition != nil {
		fmt.Fprintf(&b, "Condition: %s\n", *p.Condition)
	}
	fmt.Fprintf(&b, "Quantity available: %d\n", p.Quantity)
	fmt.Fprintf(&b, "Featured: %t\n", p.IsFeatured)
	return b.String()
}
