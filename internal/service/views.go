package service

import "github.com/mmynk/foodgram/internal/models"

// JSON representations returned by the API.

type userView struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

func newUserView(u *models.User) userView {
	v := userView{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: u.IsSubscribed,
	}
	if u.Avatar != "" {
		avatar := u.Avatar
		v.Avatar = &avatar
	}
	return v
}

type authorView struct {
	userView
	Recipes      []recipeShortView `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

func newAuthorView(a *models.Author) authorView {
	recipes := make([]recipeShortView, 0, len(a.Recipes))
	for _, r := range a.Recipes {
		recipes = append(recipes, newRecipeShortView(r))
	}
	return authorView{
		userView:     newUserView(&a.User),
		Recipes:      recipes,
		RecipesCount: a.RecipesCount,
	}
}

type tagView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func newTagView(t models.Tag) tagView {
	return tagView{ID: t.ID, Name: t.Name, Slug: t.Slug}
}

type ingredientView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func newIngredientView(i models.Ingredient) ingredientView {
	return ingredientView{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

type recipeIngredientView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeView struct {
	ID               int64                  `json:"id"`
	Tags             []tagView              `json:"tags"`
	Author           userView               `json:"author"`
	Ingredients      []recipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

func newRecipeView(r *models.Recipe) recipeView {
	v := recipeView{
		ID:               r.ID,
		Tags:             make([]tagView, 0, len(r.Tags)),
		Ingredients:      make([]recipeIngredientView, 0, len(r.Ingredients)),
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
	if r.Author != nil {
		v.Author = newUserView(r.Author)
	}
	for _, t := range r.Tags {
		v.Tags = append(v.Tags, newTagView(t))
	}
	for _, ing := range r.Ingredients {
		v.Ingredients = append(v.Ingredients, recipeIngredientView{
			ID:              ing.IngredientID,
			Name:            ing.Name,
			MeasurementUnit: ing.MeasurementUnit,
			Amount:          ing.Amount,
		})
	}
	return v
}

type recipeShortView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func newRecipeShortView(r models.RecipeSummary) recipeShortView {
	return recipeShortView{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}
