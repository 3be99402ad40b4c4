package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/config"
	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/shopspring/decimal"
)

const (
	gatewayName     = "borzo"
	parcelMatter    = "Fragile Premium Cake"
	insuranceAmount = "2000"
)

type borzoClient struct {
	client *http.Client
	cfg    config.Borzo
	store  config.Store
}

// NewBorzoClient returns a client of the Borzo business API that quotes,
// books and tracks deliveries from the store.
func NewBorzoClient(cfg config.Borzo, store config.Store) *borzoClient {
	return &borzoClient{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		store:  store,
	}
}

type point struct {
	Address       string         `json:"address"`
	Latitude      float64        `json:"latitude"`
	Longitude     float64        `json:"longitude"`
	ContactPerson *contactPerson `json:"contact_person,omitempty"`
	ClientOrderID string         `json:"client_order_id,omitempty"`
	Note          string         `json:"note,omitempty"`
}

type contactPerson struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type calculateRequest struct {
	Matter        string  `json:"matter"`
	VehicleTypeID int     `json:"vehicle_type_id"`
	Points        []point `json:"points"`
}

type calculateResponse struct {
	IsSuccessful bool     `json:"is_successful"`
	Errors       []string `json:"errors"`
	Order        struct {
		PaymentAmount           decimal.Decimal `json:"payment_amount"`
		DeliveryIntervalMinutes int             `json:"delivery_interval_minutes"`
	} `json:"order"`
}

// Estimate quotes a delivery to the given point. Points farther than the
// configured radius from the store fail with ErrOutOfServiceArea without
// calling the API.
func (c *borzoClient) Estimate(ctx context.Context, to entities.GeoPoint) (entities.DeliveryEstimate, error) {
	from := entities.GeoPoint{Latitude: c.store.Latitude, Longitude: c.store.Longitude}
	distance := Distance(from, to)
	if distance > c.cfg.RadiusMeters {
		return entities.DeliveryEstimate{}, fmt.Errorf("%w (%.0f km radius)", entities.ErrOutOfServiceArea, c.cfg.RadiusMeters/1000)
	}

	req := calculateRequest{
		Matter:        parcelMatter,
		VehicleTypeID: c.cfg.VehicleTypeID,
		Points: []point{
			{Address: c.store.Address, Latitude: from.Latitude, Longitude: from.Longitude},
			{Address: "Customer Address", Latitude: to.Latitude, Longitude: to.Longitude},
		},
	}

	var res calculateResponse
	if err := c.do(ctx, http.MethodPost, "/calculate-order", req, &res); err != nil {
		return entities.DeliveryEstimate{}, err
	}
	if !res.IsSuccessful {
		return entities.DeliveryEstimate{}, &entities.GatewayError{
			Gateway: gatewayName,
			Err:     fmt.Errorf("calculation rejected: %s", strings.Join(res.Errors, ", ")),
		}
	}

	buffer := decimal.NewFromFloat(c.cfg.SafetyBuffer)
	fee := res.Order.PaymentAmount.Mul(decimal.NewFromInt(1).Add(buffer)).Round(2)

	return entities.DeliveryEstimate{
		Fee:             fee,
		DistanceMeters:  int(math.Round(distance)),
		DurationMinutes: res.Order.DeliveryIntervalMinutes,
	}, nil
}

type createRequest struct {
	Matter          string  `json:"matter"`
	VehicleTypeID   int     `json:"vehicle_type_id"`
	InsuranceAmount string  `json:"insurance_amount"`
	Points          []point `json:"points"`
}

type borzoPoint struct {
	TrackingURL string `json:"tracking_url"`
	VisitStatus string `json:"visit_status"`
}

type borzoOrder struct {
	OrderID       json.Number     `json:"order_id"`
	Status        string          `json:"status"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	Points        []borzoPoint    `json:"points"`
	Courier       *struct {
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Phone   string `json:"phone"`
	} `json:"courier"`
}

// trackingURL is the drop-off point link the buyer can follow.
func (o borzoOrder) trackingURL() string {
	for i := len(o.Points) - 1; i >= 0; i-- {
		if o.Points[i].TrackingURL != "" {
			return o.Points[i].TrackingURL
		}
	}
	return ""
}

// deliveryStatus maps a Borzo order status onto ours. An empty result means
// the status is unknown and the stored one should stay.
func (o borzoOrder) deliveryStatus() entities.DeliveryStatus {
	switch o.Status {
	case "new", "available", "reactivated", "delayed", "planned":
		if o.Courier != nil {
			return entities.DeliveryAssigned
		}
		return entities.DeliverySearching
	case "active":
		if len(o.Points) > 0 && o.Points[0].VisitStatus == "finish" {
			return entities.DeliveryPickedUp
		}
		return entities.DeliveryAssigned
	case "completed":
		return entities.DeliveryCompleted
	case "canceled":
		return entities.DeliveryCancelled
	default:
		return ""
	}
}

type orderResponse struct {
	IsSuccessful bool       `json:"is_successful"`
	Errors       []string   `json:"errors"`
	Order        borzoOrder `json:"order"`
}

type ordersResponse struct {
	IsSuccessful bool         `json:"is_successful"`
	Errors       []string     `json:"errors"`
	Orders       []borzoOrder `json:"orders"`
}

// CreateOrder books a courier from the store to the buyer.
func (c *borzoClient) CreateOrder(ctx context.Context, in entities.DispatchRequest) (entities.Dispatch, error) {
	req := createRequest{
		Matter:          parcelMatter + " - Handle with Care",
		VehicleTypeID:   c.cfg.VehicleTypeID,
		InsuranceAmount: insuranceAmount,
		Points: []point{
			{
				Address:       c.store.Address,
				Latitude:      c.store.Latitude,
				Longitude:     c.store.Longitude,
				ContactPerson: &contactPerson{Name: c.store.Name, Phone: c.store.Phone},
				ClientOrderID: in.OrderNumber,
			},
			{
				Address:       in.Address,
				Latitude:      in.To.Latitude,
				Longitude:     in.To.Longitude,
				ContactPerson: &contactPerson{Name: in.Recipient.Name, Phone: in.Recipient.Phone},
				ClientOrderID: in.OrderNumber,
				Note:          in.Note,
			},
		},
	}

	var res orderResponse
	if err := c.do(ctx, http.MethodPost, "/create-order", req, &res); err != nil {
		return entities.Dispatch{}, err
	}
	if !res.IsSuccessful || res.Order.OrderID == "" {
		return entities.Dispatch{}, &entities.GatewayError{
			Gateway: gatewayName,
			Err:     fmt.Errorf("order rejected: %s", strings.Join(res.Errors, ", ")),
		}
	}

	status := res.Order.deliveryStatus()
	if status == "" {
		status = entities.DeliverySearching
	}
	return entities.Dispatch{
		ExternalID:  res.Order.OrderID.String(),
		TrackingURL: res.Order.trackingURL(),
		Cost:        res.Order.PaymentAmount,
		Status:      status,
	}, nil
}

// Track fetches the live state of a booked order.
func (c *borzoClient) Track(ctx context.Context, externalID string) (entities.Tracking, error) {
	var res ordersResponse
	path := "/orders?" + url.Values{"order_id": {externalID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return entities.Tracking{}, err
	}
	if !res.IsSuccessful {
		return entities.Tracking{}, &entities.GatewayError{
			Gateway: gatewayName,
			Err:     fmt.Errorf("tracking rejected: %s", strings.Join(res.Errors, ", ")),
		}
	}
	if len(res.Orders) == 0 {
		return entities.Tracking{}, entities.NotFound("delivery", externalID)
	}

	order := res.Orders[0]
	tracking := entities.Tracking{
		ExternalID: order.OrderID.String(),
		Status:     order.deliveryStatus(),
	}
	if u := order.trackingURL(); u != "" {
		tracking.TrackingURL = entities.Some(u)
	}
	if order.Courier != nil {
		tracking.CourierName = entities.Some(strings.TrimSpace(order.Courier.Name + " " + order.Courier.Surname))
		tracking.CourierPhone = entities.Some(order.Courier.Phone)
	}
	return tracking, nil
}

func (c *borzoClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.URL, "/")+path, payload)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-DV-Auth-Token", c.cfg.Token)

	resp, err := c.client.Do(req)
	if err != nil {
		return &entities.GatewayError{Gateway: gatewayName, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &entities.GatewayError{
			Gateway:    gatewayName,
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(msg))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &entities.GatewayError{Gateway: gatewayName, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}
