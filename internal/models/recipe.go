package models

// Recipe is a published recipe.
type Recipe struct {
	// ID is the database-assigned identifier.
	ID int64

	// AuthorID references the User who published the recipe.
	AuthorID int64

	// Author is populated on reads.
	Author *User

	Name string

	// Image is a data URL (data:image/<type>;base64,...).
	Image string

	Text string

	// CookingTime is in minutes, at least 1.
	CookingTime int

	// ShortCode identifies the recipe in short links.
	// Assigned once at creation and never changed.
	ShortCode string

	Tags        []Tag
	Ingredients []RecipeIngredient

	// IsFavorited and IsInShoppingCart are relative to the requesting user.
	IsFavorited      bool
	IsInShoppingCart bool

	// CreatedAt is the Unix timestamp when the recipe was published.
	CreatedAt int64
}

// RecipeIngredient is one ingredient line of a recipe.
type RecipeIngredient struct {
	IngredientID    int64
	Name            string
	MeasurementUnit string

	// Amount is a positive integer in MeasurementUnit.
	Amount int
}

// RecipeSummary is the short form of a recipe used in favorites,
// cart and subscription responses.
type RecipeSummary struct {
	ID          int64
	Name        string
	Image       string
	CookingTime int
}

// Summary returns the short form of the recipe.
func (r *Recipe) Summary() RecipeSummary {
	return RecipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// IngredientLine is a single (ingredient name, unit, amount) row taken from
// a recipe in a user's shopping cart.
type IngredientLine struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// RecipeFilter narrows ListRecipes results.
type RecipeFilter struct {
	// ViewerID is the requesting user, 0 when anonymous.
	ViewerID int64

	// AuthorID restricts to one author when non-zero.
	AuthorID int64

	// TagSlugs restricts to recipes carrying any of the slugs.
	TagSlugs []string

	// OnlyFavorited and OnlyInShoppingCart apply to ViewerID. An anonymous
	// viewer has neither favorites nor a cart, so they match nothing.
	OnlyFavorited      bool
	OnlyInShoppingCart bool

	Limit  int
	Offset int
}
