package adminapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/silmarabolos/storefront/internal/domain"
	"github.com/silmarabolos/storefront/internal/webserver"
)

type productPayload struct {
	Name        string   `json:"name" validate:"required,min=1,max=200"`
	Price       *float64 `json:"price" validate:"required"`
	Description string   `json:"description" validate:"max=2000"`
	Category    string   `json:"category"`
	ImageURL    string   `json:"imageURL" validate:"omitempty,max=1024"`
}

type productPatchPayload struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageURL" validate:"omitempty,max=1024"`
}

// registerProductRoutes registers the admin product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
	webserver.ApiPOST("/images", uploadImage)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	items, err := GetAppContext(c).Catalog().ListProducts(c.Request().Context())
	if err != nil {
		return failErr(c, err)
	}
	items, err = filterProducts(items, c.QueryParam("category"), c.QueryParam("q"))
	if err != nil {
		return failErr(c, err)
	}

	total := int64(len(items))
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return paged(c, items[start:end], total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return failErr(c, err)
	}
	p, err := GetAppContext(c).Catalog().GetProduct(c.Request().Context(), id)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var in domain.ProductInput
	var image *domain.Blob

	if isMultipart(c) {
		price, err := domain.ParsePrice(c.FormValue("price"))
		if err != nil {
			return failErr(c, err)
		}
		in = domain.ProductInput{
			Name:        c.FormValue("name"),
			Price:       price,
			Description: c.FormValue("description"),
			Category:    domain.Category(c.FormValue("category")),
			ImageURL:    c.FormValue("imageURL"),
		}
		blob, closeFn, err := readImage(c)
		if err != nil {
			return failErr(c, err)
		}
		defer closeFn()
		image = blob
	} else {
		var payload productPayload
		if err := c.Bind(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
		}
		if err := c.Validate(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Name and price are required", err.Error())
		}
		in = domain.ProductInput{
			Name:        payload.Name,
			Price:       *payload.Price,
			Description: payload.Description,
			Category:    domain.Category(payload.Category),
			ImageURL:    payload.ImageURL,
		}
	}

	p, err := GetAppContext(c).Catalog().AddProduct(c.Request().Context(), in, image)
	if err != nil {
		return failErr(c, err)
	}
	return created(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return failErr(c, err)
	}

	var patch domain.ProductPatch
	var image *domain.Blob

	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse form", err.Error())
		}
		if v, found := formValue(form.Value, "name"); found {
			patch.Name = &v
		}
		if v, found := formValue(form.Value, "price"); found {
			price, err := domain.ParsePrice(v)
			if err != nil {
				return failErr(c, err)
			}
			patch.Price = &price
		}
		if v, found := formValue(form.Value, "description"); found {
			patch.Description = &v
		}
		if v, found := formValue(form.Value, "category"); found {
			cat := domain.Category(v)
			patch.Category = &cat
		}
		if v, found := formValue(form.Value, "imageURL"); found {
			patch.ImageURL = &v
		}
		blob, closeFn, err := readImage(c)
		if err != nil {
			return failErr(c, err)
		}
		defer closeFn()
		image = blob
	} else {
		var payload productPatchPayload
		if err := c.Bind(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
		}
		if err := c.Validate(&payload); err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid product fields", err.Error())
		}
		patch = domain.ProductPatch{
			Name:        payload.Name,
			Price:       payload.Price,
			Description: payload.Description,
			ImageURL:    payload.ImageURL,
		}
		if payload.Category != nil {
			cat := domain.Category(*payload.Category)
			patch.Category = &cat
		}
	}

	p, err := GetAppContext(c).Catalog().UpdateProduct(c.Request().Context(), id, patch, image)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return failErr(c, err)
	}
	if err := GetAppContext(c).Catalog().DeleteProduct(c.Request().Context(), id); err != nil {
		return failErr(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}

func uploadImage(c echo.Context) error {
	blob, closeFn, err := readImage(c)
	if err != nil {
		return failErr(c, err)
	}
	defer closeFn()

	url, err := GetAppContext(c).Catalog().UploadImage(c.Request().Context(), blob)
	if err != nil {
		return failErr(c, err)
	}
	return created(c, map[string]string{"url": url})
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func formValue(values map[string][]string, key string) (string, bool) {
	v, found := values[key]
	if !found || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

// readImage returns the optional "image" file of a multipart request.
// Files over domain.MaxImageSize or without an image content type are rejected.
func readImage(c echo.Context) (*domain.Blob, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, &domain.ValidationError{Field: "image", Message: err.Error()}
	}
	if fh.Size > domain.MaxImageSize {
		return nil, noop, &domain.ValidationError{Field: "image", Message: "image must be smaller than 5MB"}
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, noop, &domain.ValidationError{Field: "image", Message: "file must be an image"}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, &domain.ValidationError{Field: "image", Message: err.Error()}
	}
	return &domain.Blob{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
