package relay

import (
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/cart"
)

func TestAdapterFor(t *testing.T) {
	for _, id := range []string{"1", "2"} {
		a, err := AdapterFor(id)
		if err != nil || a.ID() != id {
			t.Errorf("AdapterFor(%q) = %v, %v", id, a, err)
		}
	}
	if _, err := AdapterFor("9"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown supplier err = %v", err)
	}
}

func TestSupplierOneProducts(t *testing.T) {
	a := supplierOne{}
	cases := map[string]string{
		"bare list": `[{"id_product":"P1","nama_product":"Gula","harga":"12500.75","stok":3},{"nama_product":"no id"}]`,
		"envelope":  `{"data":[{"id_product":"P1","nama_product":"Gula","harga":12500,"stok":"3"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ps, err := a.NormalizeProducts([]byte(raw))
			if err != nil {
				t.Fatal(err)
			}
			if len(ps) != 1 {
				t.Fatalf("products = %+v", ps)
			}
			p := ps[0]
			if p.SKU != "P1" || p.Price != 12500 || p.Stock != 3 || p.SupplierID != "1" || p.Category != "-" {
				t.Errorf("product = %+v", p)
			}
		})
	}
	if _, err := a.NormalizeProducts([]byte(`"oops"`)); !apperr.Is(err, apperr.KindUpstream) {
		t.Errorf("bad body err = %v", err)
	}
}

func TestSupplierTwoProducts(t *testing.T) {
	ps, err := supplierTwo{}.NormalizeProducts([]byte(`{"products":[{"id_product":7,"nama_product":"Kopi","harga":"abc","stok":2,"id_supplier":5}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 1 || ps[0].SKU != "7" || ps[0].Price != 0 || ps[0].SupplierID != "5" {
		t.Errorf("products = %+v", ps)
	}
}

func TestCheckoutPayloads(t *testing.T) {
	items := []cart.Item{
		{SKU: "A1", Name: "Apel", Price: 1000, Qty: 3, WeightGrams: 250},
		{SKU: "B2", Name: "Beras", Price: 5000, Qty: 1, WeightGrams: 5000},
	}
	if got := TotalWeightKg(items).StringFixed(3); got != "5.750" {
		t.Fatalf("TotalWeightKg = %s", got)
	}

	b, _ := json.Marshal(supplierOne{}.BuildCheckoutPayload("RTL-01", items))
	var one struct {
		RetailID string           `json:"id_retail"`
		Items    []map[string]any `json:"items"`
		Count    int              `json:"jumlah_item"`
		Weight   float64          `json:"total_berat"`
	}
	if err := json.Unmarshal(b, &one); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	if one.RetailID != "RTL-01" || len(one.Items) != 2 || one.Count != 4 || one.Weight != 5.75 {
		t.Errorf("supplier 1 payload = %s", b)
	}

	b, _ = json.Marshal(supplierTwo{}.BuildCheckoutPayload("RTL-01", items))
	var two struct {
		Products []struct {
			ID  string `json:"id_product"`
			Qty int    `json:"jumlah"`
		} `json:"products"`
		Total int64 `json:"total_harga"`
	}
	if err := json.Unmarshal(b, &two); err != nil {
		t.Fatal(err)
	}
	if len(two.Products) != 2 || two.Products[0].Qty != 3 || two.Total != 8000 {
		t.Errorf("supplier 2 payload = %s", b)
	}
}

func TestNormalizeCheckout(t *testing.T) {
	res, err := supplierOne{}.NormalizeCheckout([]byte(`{"id_order":42,"status":"PENDING","distributor_options":[{"id_distributor":"D1","nama_distributor":"JNE","harga_pengiriman":"15000","estimasi":"2 hari"},{"nama_distributor":"no id"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.OrderID != "42" || len(res.Options) != 1 || res.Options[0].Price != 15000 {
		t.Errorf("result = %+v", res)
	}

	res, err = supplierTwo{}.NormalizeCheckout([]byte(`{"order":{"id_order":"S2-9","status":"created"},"message":"ok"}`))
	if err != nil || res.OrderID != "S2-9" || res.Status != "CREATED" {
		t.Errorf("result = %+v, %v", res, err)
	}
	if got := (supplierTwo{}).ChoosePath("S2/9"); got != "/api/retail/orders/S2%2F9/distributor" {
		t.Errorf("ChoosePath = %s", got)
	}
}

func TestFlexValues(t *testing.T) {
	var v struct {
		A FlexInt    `json:"a"`
		B FlexInt    `json:"b"`
		C FlexInt    `json:"c"`
		D FlexString `json:"d"`
		E FlexString `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"a":"12.9","b":null,"c":"x","d":123,"e":" R-1 "}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.A != 12 || v.B != 0 || v.C != 0 || v.D != "123" || v.E != "R-1" {
		t.Errorf("decoded = %+v", v)
	}
}
