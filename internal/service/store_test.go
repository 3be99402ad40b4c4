package service_test

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/outbox"
	"github.com/SergeyBogomolovv/lafete-order-service/pkg/trm"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the postgres repo and the
// transaction manager. Row locks are held until commit or rollback, and a
// rollback replays an undo log, so atomicity and lock ordering behave like
// the real database.
type memStore struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex

	variants   map[string]entities.Variant
	slots      map[string]entities.DeliverySlot
	addresses  map[string]entities.Address
	carts      map[string]*entities.Cart
	orders     map[string]entities.Order
	orderSeq   []string
	payments   map[string]entities.PaymentIntent
	deliveries map[string]entities.Delivery
	recipients map[string]entities.Contact
	events     []outbox.Event
	seq        int64

	failures map[string][]error
	calls    map[string]int
	after    map[string]func(ctx context.Context)
	commits  int
}

func newMemStore() *memStore {
	return &memStore{
		rowLocks:   map[string]*sync.Mutex{},
		variants:   map[string]entities.Variant{},
		slots:      map[string]entities.DeliverySlot{},
		addresses:  map[string]entities.Address{},
		carts:      map[string]*entities.Cart{},
		orders:     map[string]entities.Order{},
		payments:   map[string]entities.PaymentIntent{},
		deliveries: map[string]entities.Delivery{},
		recipients: map[string]entities.Contact{},
		failures:   map[string][]error{},
		calls:      map[string]int{},
		after:      map[string]func(ctx context.Context){},
	}
}

type memTxKey struct{}

type memTx struct {
	store *memStore
	held  map[string]*sync.Mutex
	undo  []func()
	done  bool
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (s *memStore) BeginTx(ctx context.Context) (context.Context, trm.Transaction, error) {
	tx := &memTx{store: s, held: map[string]*sync.Mutex{}}
	return context.WithValue(ctx, memTxKey{}, tx), tx, nil
}

func (s *memStore) Do(ctx context.Context, callback func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return callback(ctx)
	}

	ctx, tx, err := s.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := callback(ctx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.Commit()
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.mu.Lock()
	tx.store.commits++
	tx.store.mu.Unlock()
	tx.release()
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.mu.Lock()
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.store.mu.Unlock()
	tx.release()
	return nil
}

func (tx *memTx) release() {
	for _, m := range tx.held {
		m.Unlock()
	}
	tx.held = nil
}

// lockRow blocks until the calling transaction owns key.
func (s *memStore) lockRow(ctx context.Context, key string) {
	tx := txFrom(ctx)
	if _, ok := tx.held[key]; ok {
		return
	}
	s.mu.Lock()
	m, ok := s.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		s.rowLocks[key] = m
	}
	s.mu.Unlock()

	m.Lock()
	tx.held[key] = m
}

// onRollback registers fn to run, under s.mu, if the transaction in ctx rolls
// back. Writes outside a transaction are final.
func (s *memStore) onRollback(ctx context.Context, fn func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

// enter counts the call and pops an injected failure for op. Callers hold s.mu.
func (s *memStore) enter(op string) error {
	s.calls[op]++
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	s.failures[op] = queue[1:]
	return queue[0]
}

func (s *memStore) failNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], errs...)
}

// afterCall runs fn once op has returned, with the row locks it took still
// held by the calling transaction.
func (s *memStore) afterCall(op string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.after[op] = fn
}

func (s *memStore) runAfter(ctx context.Context, op string) {
	s.mu.Lock()
	fn := s.after[op]
	s.mu.Unlock()
	if fn != nil {
		fn(ctx)
	}
}

func (s *memStore) callCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// --- carts ---

func cloneCart(c *entities.Cart) entities.Cart {
	out := *c
	out.Items = slices.Clone(c.Items)
	return out
}

func (s *memStore) cartByID(cartID string) *entities.Cart {
	for _, c := range s.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (s *memStore) GetOrCreateCart(ctx context.Context, userID string) (entities.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOrCreateCart"); err != nil {
		return entities.Cart{}, err
	}

	cart, ok := s.carts[userID]
	if !ok {
		cart = &entities.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
		s.carts[userID] = cart
		s.onRollback(ctx, func() { delete(s.carts, userID) })
	}
	return cloneCart(cart), nil
}

func (s *memStore) LockCart(ctx context.Context, userID string) (entities.Cart, error) {
	if txFrom(ctx) == nil {
		return entities.Cart{}, entities.ErrNoTransaction
	}
	s.lockRow(ctx, "cart:"+userID)

	cart, err := s.lockedCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, err
	}
	s.runAfter(ctx, "LockCart")
	return cart, nil
}

func (s *memStore) lockedCart(ctx context.Context, userID string) (entities.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LockCart"); err != nil {
		return entities.Cart{}, err
	}

	cart, ok := s.carts[userID]
	if !ok {
		cart = &entities.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
		s.carts[userID] = cart
		s.onRollback(ctx, func() { delete(s.carts, userID) })
	}
	return cloneCart(cart), nil
}

func (s *memStore) SaveCartItem(ctx context.Context, item entities.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SaveCartItem"); err != nil {
		return err
	}

	cart := s.cartByID(item.CartID)
	if cart == nil {
		return entities.NotFound("cart", item.CartID)
	}
	prev := slices.Clone(cart.Items)
	s.onRollback(ctx, func() { cart.Items = prev })

	item.VariantName = s.variants[item.VariantID].DisplayName()
	for i := range cart.Items {
		if cart.Items[i].VariantID == item.VariantID {
			cart.Items[i].Quantity = item.Quantity
			cart.Items[i].PriceAtAdd = item.PriceAtAdd
			return nil
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (s *memStore) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("RemoveCartItem"); err != nil {
		return err
	}

	cart := s.cartByID(cartID)
	if cart == nil {
		return entities.NotFound("cart item", itemID)
	}
	idx := slices.IndexFunc(cart.Items, func(it entities.CartItem) bool { return it.ID == itemID })
	if idx < 0 {
		return entities.NotFound("cart item", itemID)
	}
	prev := slices.Clone(cart.Items)
	s.onRollback(ctx, func() { cart.Items = prev })
	cart.Items = slices.Delete(cart.Items, idx, idx+1)
	return nil
}

func (s *memStore) ClearCart(ctx context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ClearCart"); err != nil {
		return err
	}

	cart := s.cartByID(cartID)
	if cart == nil {
		return nil
	}
	prev := cart.Items
	s.onRollback(ctx, func() { cart.Items = prev })
	cart.Items = nil
	return nil
}

// --- inventory ---

func (s *memStore) GetVariantByID(_ context.Context, variantID string) (entities.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetVariantByID"); err != nil {
		return entities.Variant{}, err
	}

	v, ok := s.variants[variantID]
	if !ok {
		return entities.Variant{}, entities.NotFound("variant", variantID)
	}
	return v, nil
}

func (s *memStore) changeStock(ctx context.Context, op, variantID string, apply func(v *entities.Variant) error) (entities.Variant, error) {
	if txFrom(ctx) == nil {
		return entities.Variant{}, entities.ErrNoTransaction
	}
	s.lockRow(ctx, "variant:"+variantID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(op); err != nil {
		return entities.Variant{}, err
	}

	v, ok := s.variants[variantID]
	if !ok {
		return entities.Variant{}, entities.NotFound("variant", variantID)
	}
	prev := v
	if err := apply(&v); err != nil {
		return entities.Variant{}, err
	}
	s.variants[variantID] = v
	s.onRollback(ctx, func() { s.variants[variantID] = prev })
	return v, nil
}

func (s *memStore) ReserveStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error) {
	v, err := s.changeStock(ctx, "ReserveStock", variantID, func(v *entities.Variant) error {
		return v.Reserve(quantity)
	})
	if err != nil {
		return entities.Variant{}, err
	}
	s.runAfter(ctx, "ReserveStock")
	return v, nil
}

func (s *memStore) RestoreStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error) {
	return s.changeStock(ctx, "RestoreStock", variantID, func(v *entities.Variant) error {
		return v.Restock(quantity)
	})
}

// --- slots ---

func (s *memStore) changeSlot(ctx context.Context, op, slotID string, apply func(slot *entities.DeliverySlot) error) (entities.DeliverySlot, error) {
	if txFrom(ctx) == nil {
		return entities.DeliverySlot{}, entities.ErrNoTransaction
	}
	s.lockRow(ctx, "slot:"+slotID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(op); err != nil {
		return entities.DeliverySlot{}, err
	}

	slot, ok := s.slots[slotID]
	if !ok {
		return entities.DeliverySlot{}, entities.NotFound("delivery slot", slotID)
	}
	prev := slot
	if err := apply(&slot); err != nil {
		return entities.DeliverySlot{}, err
	}
	s.slots[slotID] = slot
	s.onRollback(ctx, func() { s.slots[slotID] = prev })
	return slot, nil
}

func (s *memStore) ReserveSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	return s.changeSlot(ctx, "ReserveSlot", slotID, func(slot *entities.DeliverySlot) error {
		return slot.Book()
	})
}

func (s *memStore) ReleaseSlot(ctx context.Context, slotID string) (entities.DeliverySlot, error) {
	return s.changeSlot(ctx, "ReleaseSlot", slotID, func(slot *entities.DeliverySlot) error {
		slot.Release()
		return nil
	})
}

func (s *memStore) AvailableSlots(_ context.Context, from, to time.Time) ([]entities.DeliverySlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("AvailableSlots"); err != nil {
		return nil, err
	}

	var result []entities.DeliverySlot
	for _, slot := range s.slots {
		if !slot.IsActive || slot.Remaining() == 0 || slot.Date.Before(from) || slot.Date.After(to) {
			continue
		}
		result = append(result, slot)
	}
	slices.SortFunc(result, func(a, b entities.DeliverySlot) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return result, nil
}

func (s *memStore) CreateSlots(ctx context.Context, slots []entities.DeliverySlot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateSlots"); err != nil {
		return 0, err
	}

	created := 0
	for _, slot := range slots {
		exists := false
		for _, existing := range s.slots {
			if existing.Date.Equal(slot.Date) && existing.StartTime == slot.StartTime {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		slot.ID = uuid.NewString()
		s.slots[slot.ID] = slot
		id := slot.ID
		s.onRollback(ctx, func() { delete(s.slots, id) })
		created++
	}
	return created, nil
}

// --- addresses ---

func (s *memStore) GetAddressByID(_ context.Context, userID, addressID string) (entities.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetAddressByID"); err != nil {
		return entities.Address{}, err
	}

	a, ok := s.addresses[addressID]
	if !ok || a.UserID != userID {
		return entities.Address{}, entities.NotFound("address", addressID)
	}
	return a, nil
}

// --- orders ---

func (s *memStore) NextOrderSequence(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("NextOrderSequence"); err != nil {
		return 0, err
	}
	s.seq++
	return s.seq, nil
}

func (s *memStore) CreateOrder(ctx context.Context, order entities.Order) (entities.Order, error) {
	if txFrom(ctx) == nil {
		return entities.Order{}, entities.ErrNoTransaction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateOrder"); err != nil {
		return entities.Order{}, err
	}

	for _, existing := range s.orders {
		if existing.Number == order.Number {
			return entities.Order{}, entities.ErrDuplicateOrderNumber
		}
	}

	order.ID = uuid.NewString()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	order.Items = slices.Clone(order.Items)
	for i := range order.Items {
		order.Items[i].ID = uuid.NewString()
		order.Items[i].OrderID = order.ID
	}
	s.orders[order.ID] = order
	s.orderSeq = append(s.orderSeq, order.ID)

	id := order.ID
	s.onRollback(ctx, func() {
		delete(s.orders, id)
		s.orderSeq = slices.DeleteFunc(s.orderSeq, func(v string) bool { return v == id })
	})
	return order, nil
}

func (s *memStore) GetOrderByID(_ context.Context, orderID string) (entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetOrderByID"); err != nil {
		return entities.Order{}, err
	}

	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, entities.NotFound("order", orderID)
	}
	return order, nil
}

func (s *memStore) LockOrder(ctx context.Context, orderID string) (entities.Order, error) {
	if txFrom(ctx) == nil {
		return entities.Order{}, entities.ErrNoTransaction
	}
	s.lockRow(ctx, "order:"+orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LockOrder"); err != nil {
		return entities.Order{}, err
	}

	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, entities.NotFound("order", orderID)
	}
	return order, nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, orderID string, status entities.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateOrderStatus"); err != nil {
		return err
	}

	order, ok := s.orders[orderID]
	if !ok {
		return entities.NotFound("order", orderID)
	}
	prev := order
	order.Status = status
	order.UpdatedAt = time.Now()
	s.orders[orderID] = order
	s.onRollback(ctx, func() { s.orders[orderID] = prev })
	return nil
}

func (s *memStore) ListOrdersByUser(_ context.Context, userID string) ([]entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListOrdersByUser"); err != nil {
		return nil, err
	}

	result := []entities.Order{}
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		if order := s.orders[s.orderSeq[i]]; order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (s *memStore) LatestOrders(_ context.Context, count int) ([]entities.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LatestOrders"); err != nil {
		return nil, err
	}

	result := []entities.Order{}
	for i := len(s.orderSeq) - 1; i >= 0 && len(result) < count; i-- {
		result = append(result, s.orders[s.orderSeq[i]])
	}
	return result, nil
}

// --- payments ---

func (s *memStore) CreatePayment(ctx context.Context, payment entities.PaymentIntent) (entities.PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreatePayment"); err != nil {
		return entities.PaymentIntent{}, err
	}

	payment.ID = uuid.NewString()
	payment.CreatedAt = time.Now()
	s.payments[payment.ID] = payment
	id := payment.ID
	s.onRollback(ctx, func() { delete(s.payments, id) })
	return payment, nil
}

func (s *memStore) LockPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (entities.PaymentIntent, error) {
	if txFrom(ctx) == nil {
		return entities.PaymentIntent{}, entities.ErrNoTransaction
	}
	s.lockRow(ctx, "payment:"+gatewayOrderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("LockPaymentByGatewayOrderID"); err != nil {
		return entities.PaymentIntent{}, err
	}

	for _, p := range s.payments {
		if p.GatewayOrderID == gatewayOrderID {
			return p, nil
		}
	}
	return entities.PaymentIntent{}, entities.NotFound("payment", gatewayOrderID)
}

func (s *memStore) MarkPaymentCaptured(ctx context.Context, paymentID, gatewayPaymentID, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("MarkPaymentCaptured"); err != nil {
		return err
	}

	p, ok := s.payments[paymentID]
	if !ok {
		return entities.NotFound("payment", paymentID)
	}
	prev := p
	p.Status = entities.PaymentCaptured
	p.GatewayPaymentID = entities.Some(gatewayPaymentID)
	p.Signature = entities.Some(signature)
	s.payments[paymentID] = p
	s.onRollback(ctx, func() { s.payments[paymentID] = prev })
	return nil
}

// --- outbox ---

func (s *memStore) Enqueue(ctx context.Context, event outbox.Event) error {
	if err := s.enqueue(ctx, event); err != nil {
		return err
	}
	s.runAfter(ctx, "Enqueue")
	return nil
}

func (s *memStore) enqueue(ctx context.Context, event outbox.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("Enqueue"); err != nil {
		return err
	}

	s.events = append(s.events, event)
	id := event.EventID
	s.onRollback(ctx, func() {
		s.events = slices.DeleteFunc(s.events, func(e outbox.Event) bool { return e.EventID == id })
	})
	return nil
}

// --- deliveries ---

func (s *memStore) GetDeliveryByOrder(_ context.Context, orderID string) (entities.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetDeliveryByOrder"); err != nil {
		return entities.Delivery{}, err
	}

	d, ok := s.deliveries[orderID]
	if !ok {
		return entities.Delivery{}, entities.NotFound("delivery", orderID)
	}
	return d, nil
}

func (s *memStore) SaveDelivery(ctx context.Context, d entities.Delivery) (entities.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SaveDelivery"); err != nil {
		return entities.Delivery{}, err
	}

	prev, existed := s.deliveries[d.OrderID]
	if existed {
		d.ID = prev.ID
		d.CreatedAt = prev.CreatedAt
	} else {
		d.ID = uuid.NewString()
		d.CreatedAt = time.Now()
	}
	d.UpdatedAt = time.Now()
	s.deliveries[d.OrderID] = d

	orderID := d.OrderID
	s.onRollback(ctx, func() {
		if existed {
			s.deliveries[orderID] = prev
		} else {
			delete(s.deliveries, orderID)
		}
	})
	return d, nil
}

func (s *memStore) GetRecipient(_ context.Context, userID string) (entities.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetRecipient"); err != nil {
		return entities.Contact{}, err
	}

	c, ok := s.recipients[userID]
	if !ok {
		return entities.Contact{}, entities.NotFound("user", userID)
	}
	return c, nil
}

// --- seeding and inspection ---

func (s *memStore) seedRecipient(userID, name, phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients[userID] = entities.Contact{Name: name, Phone: phone}
}

func (s *memStore) delivery(orderID string) (entities.Delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[orderID]
	return d, ok
}

func (s *memStore) seedVariant(name, price string, stock int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.variants[id] = entities.Variant{
		ID:               id,
		ProductID:        uuid.NewString(),
		ProductName:      name,
		Name:             "1 kg",
		Price:            decimal.RequireFromString(price),
		StockQuantity:    stock,
		IsAvailable:      true,
		ProductAvailable: true,
	}
	return id
}

func (s *memStore) seedSlot(capacity, bookings int, active bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.slots[id] = entities.DeliverySlot{
		ID:              id,
		Date:            time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		EndTime:         "13:00",
		MaxCapacity:     capacity,
		CurrentBookings: bookings,
		IsActive:        active,
	}
	return id
}

func (s *memStore) seedAddress(userID string, located bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	a := entities.Address{
		ID:      id,
		UserID:  userID,
		Label:   "Home",
		Street:  "Hill Road",
		City:    "Mumbai",
		Pincode: "400050",
	}
	if located {
		a.Location = entities.Some(entities.GeoPoint{Latitude: 19.0596, Longitude: 72.8295})
	}
	s.addresses[id] = a
	return id
}

type cartLine struct {
	variantID string
	quantity  int
}

func (s *memStore) seedCart(userID string, lines ...cartLine) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := &entities.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: time.Now()}
	for _, l := range lines {
		v := s.variants[l.variantID]
		cart.Items = append(cart.Items, entities.CartItem{
			ID:          uuid.NewString(),
			CartID:      cart.ID,
			VariantID:   l.variantID,
			VariantName: v.DisplayName(),
			Quantity:    l.quantity,
			PriceAtAdd:  v.Price,
		})
	}
	s.carts[userID] = cart
	return cart.ID
}

func (s *memStore) seedOrder(userID string, status entities.OrderStatus) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.orders[id] = entities.Order{
		ID:        id,
		Number:    entities.FormatOrderNumber("LF", 2026, int64(len(s.orders)+1000)),
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now(),
	}
	s.orderSeq = append(s.orderSeq, id)
	return id
}

func (s *memStore) stock(variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variants[variantID].StockQuantity
}

func (s *memStore) bookings(slotID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slotID].CurrentBookings
}

func (s *memStore) cartSize(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.carts[userID]; ok {
		return len(c.Items)
	}
	return 0
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.Type)
	}
	return types
}

func (s *memStore) lastEvent() outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}
